package main

import (
	"os"
	"strconv"

	"github.com/bwmarrin/snowflake"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/clock"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/config"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/migration"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/observability"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/scheduler"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/seed"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/server"
	"github.com/coderjoher/Project-Managment-Tool-sub000/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		// HTTP server and every domain module it serves
		server.Module,

		// Start-up provisioning and background jobs
		seed.Module,
		scheduler.Module,

		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Named("fx")}
		}),
	)
	app.Run()
}

// RegisterSnowflake builds the id generator. NODE_ID separates replicas.
func RegisterSnowflake() (*snowflake.Node, error) {
	nodeID := int64(1)
	if raw := os.Getenv("NODE_ID"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, err
		}
		nodeID = parsed
	}
	return snowflake.NewNode(nodeID)
}
