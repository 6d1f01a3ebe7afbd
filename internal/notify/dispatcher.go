package notify

import (
	"context"
	"sync"
	"time"

	"garageleadly/pkg/logger"

	"github.com/hibiken/asynq"
)

// Enqueuer is the part of *asynq.Client used for dispatch.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// QueueDispatcher hands notifications to the worker through asynq.
type QueueDispatcher struct {
	client   Enqueuer
	queue    string
	maxRetry int
}

func NewQueueDispatcher(client Enqueuer, queue string, maxRetry int) *QueueDispatcher {
	if queue == "" {
		queue = "default"
	}
	return &QueueDispatcher{client: client, queue: queue, maxRetry: maxRetry}
}

func (d *QueueDispatcher) DispatchLeadAssigned(ctx context.Context, leadID string) error {
	task, err := NewLeadNotifyTask(LeadNotifyPayload{LeadID: leadID})
	if err != nil {
		return err
	}
	_, err = d.client.EnqueueContext(ctx, task,
		asynq.Queue(d.queue),
		asynq.MaxRetry(d.maxRetry),
		asynq.Timeout(time.Minute),
	)
	return err
}

// InlineDispatcher delivers in a background goroutine of the calling process.
// It is used when no task queue is configured.
type InlineDispatcher struct {
	svc     *Service
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewInlineDispatcher(svc *Service) *InlineDispatcher {
	return &InlineDispatcher{svc: svc, timeout: 30 * time.Second}
}

func (d *InlineDispatcher) DispatchLeadAssigned(ctx context.Context, leadID string) error {
	bg := context.WithoutCancel(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(bg, d.timeout)
		defer cancel()
		if err := d.svc.Deliver(ctx, leadID); err != nil {
			logger.From(ctx).Error("inline notification failed", "lead_id", leadID, "error", err)
		}
	}()
	return nil
}

// Wait blocks until in-flight deliveries finish. Called on shutdown.
func (d *InlineDispatcher) Wait() { d.wg.Wait() }
