// Command migrate applies or rolls back the embedded PostgreSQL migrations.
//
//	migrate up
//	migrate down [steps]
//	migrate version
package main

import (
	"database/sql"
	"fmt"
	"os"
	"strconv"

	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/config"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/migration"
	"github.com/coderjoher/Project-Managment-Tool-sub000/pkg/db"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

func main() {
	log, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(os.Args[1:], log); err != nil {
		log.Fatal("migrate failed", zap.Error(err))
	}
}

func run(args []string, log *zap.Logger) error {
	command := "up"
	if len(args) > 0 {
		command = args[0]
	}

	cfg := db.NewConfig(config.Load())
	if !cfg.IsPostgres() {
		return fmt.Errorf("migrations require DATABASE_TYPE=postgres, got %q", cfg.Type)
	}

	conn, err := sql.Open("postgres", db.PostgresDSN(cfg))
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := conn.Ping(); err != nil {
		return err
	}

	switch command {
	case "up":
		if err := migration.RunMigrations(conn); err != nil {
			return err
		}
	case "down":
		steps := 1
		if len(args) > 1 {
			steps, err = strconv.Atoi(args[1])
			if err != nil || steps < 1 {
				return fmt.Errorf("invalid steps %q", args[1])
			}
		}
		if err := migration.RollbackMigrations(conn, steps); err != nil {
			return err
		}
	case "version":
	default:
		return fmt.Errorf("unknown command %q", command)
	}

	version, dirty, err := migration.Version(conn)
	if err != nil {
		return err
	}
	log.Info("schema version", zap.String("command", command), zap.Uint("version", version), zap.Bool("dirty", dirty))
	return nil
}
