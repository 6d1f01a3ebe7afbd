package main

import (
	"context"
	"log/slog"
	"time"

	"garageleadly/internal/audit"
	"garageleadly/internal/billing"
	"garageleadly/internal/config"
	"garageleadly/internal/contractors"
	"garageleadly/internal/httpapi"
	"garageleadly/internal/leads"
	"garageleadly/internal/notify"
	"garageleadly/internal/pricing"
	"garageleadly/internal/reporting"
	"garageleadly/internal/routing"
	"garageleadly/pkg/utils"

	"github.com/hibiken/asynq"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

// app owns the service graph behind the HTTP handlers.
type app struct {
	Handlers httpapi.Handlers

	queue  *asynq.Client
	inline *notify.InlineDispatcher
}

// Close releases the queue client and waits for inline notifications to finish.
func (a *app) Close() {
	if a.queue != nil {
		_ = a.queue.Close()
	}
	if a.inline != nil {
		a.inline.Wait()
	}
}

func buildApp(ctx context.Context, cfg config.Config, pg *sqlx.DB, rdb *redis.Client, log *slog.Logger) (*app, error) {
	leadRepo := leads.NewPostgresRepo(pg)
	roster := contractors.NewService(contractors.NewPostgresRepo(pg))
	auditSvc := audit.NewService(audit.NewPostgresRepo(pg))

	var counter routing.Counter = routing.NewRedisCounter(rdb)
	if cfg.Quota.Backend == "postgres" {
		counter = routing.NewPostgresCounter(pg)
	}
	quota := routing.NewQuotaChecker(counter, leadRepo, cfg.Location())

	assigner := routing.NewAssigner(leadRepo, roster, quota)
	assigner.Audit = routing.AuditAdapter{Audit: auditSvc}
	assigner.Log = log

	out := &app{}
	if cfg.Notify.Async {
		out.queue = asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr(), Password: cfg.Redis.Password})
		assigner.Dispatcher = notify.NewQueueDispatcher(out.queue, cfg.Queue.Name, cfg.Queue.MaxRetry)
	} else {
		senders, err := notify.SendersFromConfig(ctx, cfg.Notify)
		if err != nil {
			return nil, err
		}
		out.inline = notify.NewInlineDispatcher(notify.NewService(leadRepo, roster, auditSvc, senders...))
		assigner.Dispatcher = out.inline
	}

	var billingSvc *billing.Service
	if cfg.BillingEnabled() {
		billingSvc = billing.NewService(billing.Options{
			Repo:          billing.NewPostgresRepo(pg),
			Processor:     billing.NewStripeProcessor(cfg.Billing.StripeSecretKey, nil),
			Prices:        pricing.NewService(pricing.NewPostgresRepo(pg), cfg.Billing.DefaultLeadPrice, cfg.Billing.Currency),
			Leads:         leadRepo,
			Contractors:   roster,
			Audit:         auditSvc,
			WebhookSecret: cfg.Billing.StripeWebhookSecret,
		})
		assigner.Biller = billingSvc
	}

	out.Handlers = httpapi.Handlers{
		Leads:       leads.NewService(leadRepo),
		Contractors: roster,
		Assigner:    assigner,
		Reports:     reporting.NewService(leadRepo, roster, quota),
		Audit:       auditSvc,
		Billing:     billingSvc,
		Notifier:    assigner.Dispatcher,
		Ping: func(ctx context.Context) error {
			if err := utils.HealthCheck(ctx, pg.DB, 2*time.Second); err != nil {
				return err
			}
			return rdb.Ping(ctx).Err()
		},
	}
	return out, nil
}
