package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/ogurasousui/worker-chronology/internal/adapters/http/handler"
	"github.com/ogurasousui/worker-chronology/internal/adapters/report/xlsx"
	"github.com/ogurasousui/worker-chronology/internal/adapters/repository/postgres"
	"github.com/ogurasousui/worker-chronology/internal/core/audit"
	"github.com/ogurasousui/worker-chronology/internal/core/ids"
	"github.com/ogurasousui/worker-chronology/internal/core/leave"
	"github.com/ogurasousui/worker-chronology/internal/core/period"
	"github.com/ogurasousui/worker-chronology/internal/platform/config"
	pg "github.com/ogurasousui/worker-chronology/internal/platform/db/postgres"
	"github.com/ogurasousui/worker-chronology/internal/platform/logging"
	"github.com/ogurasousui/worker-chronology/internal/platform/server"
)

func main() {
	configPath := flag.String("config", "", "path to config file (defaults to CONFIG_PATH env or assets/local.yaml)")
	flag.Parse()

	// .env は任意です。
	_ = godotenv.Load()

	cfg, err := config.Load(config.ResolvePath(*configPath))
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := logging.New(cfg.Log, os.Stdout)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped with error", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := pg.NewPool(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer dbPool.Close()

	tx := pg.NewTransactionManager(dbPool)

	workerRepo := postgres.NewWorkerRepository(dbPool)
	periodRepo := postgres.NewPeriodRepository(dbPool)
	leaveRepo := postgres.NewLeaveRepository(dbPool)

	periodSvc := period.NewService(periodRepo, leaveRepo, nil, tx)
	leaveSvc := leave.NewService(leaveRepo, periodRepo, nil, tx)
	auditSvc := audit.NewService(workerRepo, periodRepo, leaveRepo, auditConfig(cfg.Audit), nil, tx, logger)

	h := handler.NewHandler(periodSvc, leaveSvc, auditSvc, xlsx.NewWriter(), logger)
	router := handler.NewRouter(h, handler.RouterOptions{
		AllowedOrigins: cfg.Server.CORSAllowedOrigins,
		AccessLog:      cfg.Server.AccessLog,
	})

	return server.New(cfg.Server, router, logger).Run(ctx)
}

func auditConfig(cfg config.AuditConfig) audit.Config {
	out := audit.Config{Concurrency: cfg.Concurrency}
	if cfg.ExcludedWorkplaceID != "" {
		wp := ids.WorkplaceID(cfg.ExcludedWorkplaceID)
		out.ExcludedWorkplaceID = &wp
	}
	for _, id := range cfg.ExcludedLeaveTypeIDs {
		out.ExcludedLeaveTypeIDs = append(out.ExcludedLeaveTypeIDs, ids.LeaveTypeID(id))
	}
	return out
}
