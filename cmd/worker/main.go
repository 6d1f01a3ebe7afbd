package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"garageleadly/internal/audit"
	"garageleadly/internal/config"
	"garageleadly/internal/contractors"
	"garageleadly/internal/leads"
	"garageleadly/internal/notify"
	"garageleadly/pkg/logger"
	"garageleadly/pkg/utils"

	"github.com/hibiken/asynq"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// The worker delivers lead notifications queued by the api.
func main() {
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env).With("component", "worker")
	slog.SetDefault(log)

	if err := run(rootCtx, cfg, log); err != nil {
		log.Error("worker stopped", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	pg, err := utils.OpenPostgres(ctx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		return err
	}
	defer pg.Close()

	senders, err := notify.SendersFromConfig(ctx, cfg.Notify)
	if err != nil {
		return err
	}
	if len(senders) == 0 {
		log.Warn("no notification channels configured; notifications are logged only")
	}

	svc := notify.NewService(
		leads.NewPostgresRepo(pg),
		contractors.NewService(contractors.NewPostgresRepo(pg)),
		audit.NewService(audit.NewPostgresRepo(pg)),
		senders...,
	)
	w := notify.NewWorker(
		asynq.RedisClientOpt{Addr: cfg.RedisAddr(), Password: cfg.Redis.Password},
		notify.WorkerConfig{Queue: cfg.Queue.Name, Concurrency: cfg.Queue.Concurrency},
		svc,
		log,
	)

	log.Info("worker started", "queue", cfg.Queue.Name, "concurrency", cfg.Queue.Concurrency, "channels", cfg.Notify.Channels)
	return w.Run(ctx)
}
