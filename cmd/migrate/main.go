package main

import (
	"errors"
	"flag"
	"fmt"
	"net/url"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/joho/godotenv"

	"flashsale-backend/internal/config"
	"flashsale-backend/pkg/logger"
)

func main() {
	var migrationsPath string
	flag.StringVar(&migrationsPath, "path", "migrations", "path to migrations directory")
	flag.Parse()

	_ = godotenv.Load()
	logger.Init(os.Getenv("APP_ENV"))

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}
	command := args[0]

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", err)
	}

	m, err := migrate.New("file://"+migrationsPath, databaseURL(cfg.Database))
	if err != nil {
		logger.Fatal("failed to create migrator", err)
	}
	defer m.Close()

	switch command {
	case "up":
		runStep(m.Up, "up")

	case "down":
		runStep(m.Down, "down")

	case "step":
		if len(args) < 2 {
			logger.Fatal("step count required: migrate step <n>", nil)
		}
		n, err := strconv.Atoi(args[1])
		if err != nil {
			logger.Fatal("invalid step count", err)
		}
		runStep(func() error { return m.Steps(n) }, "step")

	case "version":
		version, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			logger.Info("no migrations applied", nil)
			return
		}
		if err != nil {
			logger.Fatal("failed to read version", err)
		}
		logger.Info("current migration version", map[string]interface{}{
			"version": version,
			"dirty":   dirty,
		})

	case "force":
		if len(args) < 2 {
			logger.Fatal("version required: migrate force <version>", nil)
		}
		version, err := strconv.Atoi(args[1])
		if err != nil {
			logger.Fatal("invalid version", err)
		}
		if err := m.Force(version); err != nil {
			logger.Fatal("force failed", err)
		}
		logger.Info("version forced", map[string]interface{}{
			"version": version,
		})

	default:
		printUsage()
		os.Exit(1)
	}
}

func runStep(fn func() error, name string) {
	err := fn()
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info("database already up to date", nil)
		return
	}
	if err != nil {
		logger.Fatal(fmt.Sprintf("migration %s failed", name), err)
	}
	logger.Info(fmt.Sprintf("migration %s completed", name), nil)
}

func databaseURL(db config.DatabaseConfig) string {
	return fmt.Sprintf("pgx5://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(db.User),
		url.QueryEscape(db.Password),
		db.Host,
		db.Port,
		db.Database,
		db.SSLMode,
	)
}

func printUsage() {
	fmt.Println(`Database migration tool

Usage:
  migrate [flags] <command> [arguments]

Commands:
  up               Apply all pending migrations
  down             Roll back all migrations
  step <n>         Apply n migrations (negative rolls back)
  version          Show current migration version
  force <version>  Force set migration version (use with caution)

Flags:
  -path string     Path to migrations directory (default: migrations)

Environment:
  DB_HOST, DB_PORT, DB_USER, DB_PASSWORD, DB_NAME, DB_SSLMODE`)
}
