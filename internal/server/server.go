package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/audit"
	auditdomain "github.com/coderjoher/Project-Managment-Tool-sub000/internal/audit/domain"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/auth"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/auth/cookie"
	authdomain "github.com/coderjoher/Project-Managment-Tool-sub000/internal/auth/domain"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/authorization"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/config"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/financial"
	financialdomain "github.com/coderjoher/Project-Managment-Tool-sub000/internal/financial/domain"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/invitation"
	invitationdomain "github.com/coderjoher/Project-Managment-Tool-sub000/internal/invitation/domain"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/observability"
	obslogger "github.com/coderjoher/Project-Managment-Tool-sub000/internal/observability/logger"
	obsmetrics "github.com/coderjoher/Project-Managment-Tool-sub000/internal/observability/metrics"
	obstracing "github.com/coderjoher/Project-Managment-Tool-sub000/internal/observability/tracing"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/offer"
	offerdomain "github.com/coderjoher/Project-Managment-Tool-sub000/internal/offer/domain"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/profile"
	profiledomain "github.com/coderjoher/Project-Managment-Tool-sub000/internal/profile/domain"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/project"
	projectdomain "github.com/coderjoher/Project-Managment-Tool-sub000/internal/project/domain"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/providers"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/ratelimit"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/signup"
	signupdomain "github.com/coderjoher/Project-Managment-Tool-sub000/internal/signup/domain"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	authorization.Module,
	audit.Module,
	auth.Module,
	profile.Module,
	invitation.Module,
	signup.Module,
	project.Module,
	offer.Module,
	financial.Module,
	providers.Module,
	ratelimit.Module,
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(RegisterRoutes),
	fx.Invoke(run),
)

const (
	scopeLogin     = "auth_login"
	scopeSignup    = "auth_signup"
	scopeFunctions = "functions"
)

func NewEngine(cfg config.Config, obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(obslogger.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(cors.New(corsConfig(cfg)))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func corsConfig(cfg config.Config) cors.Config {
	corsCfg := cors.Config{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Authorization", "Content-Type", obslogger.HeaderRequestID, obslogger.HeaderCorrelationID},
		ExposeHeaders:    []string{"Content-Disposition", obslogger.HeaderRequestID, "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.CORSOrigins) > 0 {
		corsCfg.AllowOrigins = cfg.CORSOrigins
	} else {
		corsCfg.AllowOrigins = []string{cfg.PublicOrigin}
	}
	return corsCfg
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	addr := cfg.HTTPAddr
	if addr == "" {
		addr = ":8080"
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", addr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine        *gin.Engine
	cfg           config.Config
	log           *zap.Logger
	cookies       *cookie.Manager
	limiter       *ratelimit.Limiter
	authSvc       authdomain.Service
	profileSvc    profiledomain.Service
	invitationSvc invitationdomain.Service
	signupSvc     signupdomain.Service
	projectSvc    projectdomain.Service
	offerSvc      offerdomain.Service
	financialSvc  financialdomain.Service
	auditSvc      auditdomain.Service
}

type ServerParams struct {
	fx.In

	Gin           *gin.Engine
	Cfg           config.Config
	Log           *zap.Logger
	Cookies       *cookie.Manager
	Limiter       *ratelimit.Limiter `optional:"true"`
	AuthSvc       authdomain.Service
	ProfileSvc    profiledomain.Service
	InvitationSvc invitationdomain.Service
	SignupSvc     signupdomain.Service
	ProjectSvc    projectdomain.Service
	OfferSvc      offerdomain.Service
	FinancialSvc  financialdomain.Service
	AuditSvc      auditdomain.Service
}

func NewServer(p ServerParams) *Server {
	return &Server{
		engine:        p.Gin,
		cfg:           p.Cfg,
		log:           p.Log.Named("http.server"),
		cookies:       p.Cookies,
		limiter:       p.Limiter,
		authSvc:       p.AuthSvc,
		profileSvc:    p.ProfileSvc,
		invitationSvc: p.InvitationSvc,
		signupSvc:     p.SignupSvc,
		projectSvc:    p.ProjectSvc,
		offerSvc:      p.OfferSvc,
		financialSvc:  p.FinancialSvc,
		auditSvc:      p.AuditSvc,
	}
}

func RegisterRoutes(s *Server) {
	s.RegisterAuthRoutes()
	s.RegisterFunctionRoutes()
	s.RegisterAPIRoutes()
}

func (s *Server) RegisterAuthRoutes() {
	authGroup := s.engine.Group("/auth")
	authGroup.POST("/signup", s.RateLimit(scopeSignup), s.SignUp)
	authGroup.POST("/signup/invitation", s.RateLimit(scopeSignup), s.SignUpWithInvitation)
	authGroup.POST("/login", s.RateLimit(scopeLogin), s.Login)
	authGroup.POST("/logout", s.Logout)
	authGroup.GET("/me", s.Authenticated(), s.Me)
}

func (s *Server) RegisterFunctionRoutes() {
	fn := s.engine.Group("/functions", s.RateLimit(scopeFunctions))
	fn.POST("/complete-invitation", s.CompleteInvitation)
	fn.POST("/send-invitation", s.Authenticated(), s.SendInvitation)
}

func (s *Server) RegisterAPIRoutes() {
	s.engine.GET("/api/invitations/validate", s.ValidateInvitation)

	api := s.engine.Group("/api", s.Authenticated())

	api.GET("/profile", s.GetProfile)
	api.PATCH("/profile", s.UpdateProfile)

	api.POST("/invitations", s.GenerateInvitation)
	api.GET("/invitations", s.ListInvitations)
	api.DELETE("/invitations/:id", s.DeleteInvitation)

	api.GET("/categories", s.ListCategories)
	api.POST("/categories", s.CreateCategory)

	api.GET("/projects/export", s.ExportProjects)
	api.GET("/projects", s.ListProjects)
	api.POST("/projects", s.CreateProject)
	api.GET("/projects/:id", s.GetProject)
	api.PATCH("/projects/:id", s.UpdateProject)
	api.PATCH("/projects/:id/status", s.UpdateProjectStatus)
	api.DELETE("/projects/:id", s.DeleteProject)
	api.POST("/projects/:id/offers", s.CreateOffer)
	api.GET("/projects/:id/offers", s.ListProjectOffers)
	api.GET("/projects/:id/financial", s.GetProjectFinancial)

	api.GET("/offers/export", s.ExportOffers)
	api.GET("/offers", s.ListOffers)
	api.GET("/offers/:id", s.GetOffer)
	api.PATCH("/offers/:id/status", s.UpdateOfferStatus)

	api.GET("/financials/:id", s.GetFinancial)
	api.GET("/financials/:id/updates", s.ListFinancialUpdates)
	api.POST("/financials/:id/updates", s.AddFinancialUpdate)
	api.GET("/financials/:id/statement.pdf", s.FinancialStatement)

	api.GET("/audit-logs", s.ListAuditLogs)
}
