package notify

import (
	"context"
	"errors"
	"log/slog"

	"garageleadly/internal/leads"
	"garageleadly/pkg/logger"

	"github.com/hibiken/asynq"
)

type WorkerConfig struct {
	Queue       string
	Concurrency int
}

// Worker consumes notification tasks.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	svc    *Service
	log    *slog.Logger
}

func NewWorker(opt asynq.RedisConnOpt, cfg WorkerConfig, svc *Service, log *slog.Logger) *Worker {
	queue := cfg.Queue
	if queue == "" {
		queue = "default"
	}
	concurrency := cfg.Concurrency
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues:      map[string]int{queue: 1},
	})

	if log == nil {
		log = slog.Default()
	}
	w := &Worker{server: server, mux: asynq.NewServeMux(), svc: svc, log: log}
	w.mux.HandleFunc(TaskLeadNotify, w.handleLeadNotify)
	return w
}

func (w *Worker) handleLeadNotify(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseLeadNotifyPayload(task)
	if err != nil {
		return errors.Join(err, asynq.SkipRetry)
	}
	if payload.LeadID == "" {
		return asynq.SkipRetry
	}

	ctx = logger.With(ctx, w.log.With("task", TaskLeadNotify))
	err = w.svc.Deliver(ctx, payload.LeadID)
	if errors.Is(err, leads.ErrNotFound) {
		return errors.Join(err, asynq.SkipRetry)
	}
	return err
}

// Run processes tasks until ctx is cancelled, then waits for in-flight tasks.
func (w *Worker) Run(ctx context.Context) error {
	if err := w.server.Start(w.mux); err != nil {
		return err
	}
	<-ctx.Done()
	w.server.Shutdown()
	return nil
}
