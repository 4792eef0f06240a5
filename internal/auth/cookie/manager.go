// Package cookie reads and writes the login session cookie.
package cookie

import (
	"net/http"
	"strings"
	"time"

	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/config"
	"github.com/gin-gonic/gin"
)

const DefaultName = "_sid"

// Manager manages auth session cookies.
type Manager struct {
	name   string
	secure bool
}

func NewManager(cfg config.Config) *Manager {
	return &Manager{
		name:   DefaultName,
		secure: cfg.AuthCookieSecure,
	}
}

func (m *Manager) Name() string {
	return m.name
}

// ReadToken returns the bearer token if present, otherwise the cookie value.
func (m *Manager) ReadToken(c *gin.Context) (string, bool) {
	if header := strings.TrimSpace(c.GetHeader("Authorization")); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if ok && strings.EqualFold(scheme, "Bearer") && strings.TrimSpace(token) != "" {
			return strings.TrimSpace(token), true
		}
	}
	token, err := c.Cookie(m.name)
	if err != nil || strings.TrimSpace(token) == "" {
		return "", false
	}
	return token, true
}

func (m *Manager) Set(c *gin.Context, value string, expiresAt time.Time) {
	maxAge := int(time.Until(expiresAt).Seconds())
	if maxAge < 0 {
		maxAge = 0
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(m.name, value, maxAge, "/", "", m.secure, true)
}

func (m *Manager) Clear(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(m.name, "", -1, "/", "", m.secure, true)
}
