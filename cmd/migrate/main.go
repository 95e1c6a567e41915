package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/joho/godotenv"

	"github.com/ogurasousui/worker-chronology/internal/platform/config"
	"github.com/ogurasousui/worker-chronology/internal/platform/logging"
)

// seedsTable はスキーマとは別にシードの適用履歴を記録するテーブルです。
const seedsTable = "seed_migrations"

func main() {
	var (
		configPath    = flag.String("config", "", "path to config file (defaults to CONFIG_PATH env or assets/local.yaml)")
		migrationsDir = flag.String("dir", "assets/migrations", "directory containing migration files")
		seedsDir      = flag.String("seeds", "assets/seeds", "directory containing seed files (used by the seed action)")
	)
	flag.Parse()

	_ = godotenv.Load()

	action := "up"
	if flag.NArg() > 0 {
		action = flag.Arg(0)
	}

	cfg, err := config.Load(config.ResolvePath(*configPath))
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := logging.New(cfg.Log, os.Stdout)

	dir, dsn := *migrationsDir, cfg.Database.DSN()
	if action == "seed" {
		dir, dsn, action = *seedsDir, withMigrationsTable(dsn, seedsTable), "up"
	}

	if err := runMigration(logger, action, dir, dsn); err != nil {
		logger.Error("migration failed", slog.String("action", action), slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("migration completed", slog.String("action", action), slog.String("dir", dir))
}

func withMigrationsTable(dsn, table string) string {
	u, err := url.Parse(dsn)
	if err != nil {
		return dsn
	}
	q := u.Query()
	q.Set("x-migrations-table", table)
	u.RawQuery = q.Encode()
	return u.String()
}

func runMigration(logger *slog.Logger, action, dir, dsn string) error {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("resolve path for %s: %w", dir, err)
	}
	absDir = filepath.ToSlash(absDir)

	m, err := migrate.New(fmt.Sprintf("file://%s", absDir), dsn)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer m.Close()

	switch action {
	case "up":
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return err
		}
		return nil
	case "down":
		if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return err
		}
		return nil
	case "drop":
		return m.Drop()
	case "version":
		version, dirty, err := m.Version()
		if err != nil {
			if errors.Is(err, migrate.ErrNilVersion) {
				logger.Info("no migration applied")
				return nil
			}
			return err
		}
		logger.Info("current version", slog.Uint64("version", uint64(version)), slog.Bool("dirty", dirty))
		return nil
	default:
		return fmt.Errorf("unsupported action %q", action)
	}
}
