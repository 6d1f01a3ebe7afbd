package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"garageleadly/internal/leads"

	"github.com/hibiken/asynq"
)

func TestLeadNotifyTask_RoundTrip(t *testing.T) {
	task, err := NewLeadNotifyTask(LeadNotifyPayload{LeadID: "l1"})
	if err != nil {
		t.Fatalf("new task: %v", err)
	}
	if task.Type() != TaskLeadNotify {
		t.Fatalf("unexpected type %q", task.Type())
	}
	p, err := ParseLeadNotifyPayload(task)
	if err != nil || p.LeadID != "l1" {
		t.Fatalf("parse: %+v %v", p, err)
	}
	if _, err := ParseLeadNotifyPayload(asynq.NewTask(TaskLeadNotify, []byte("{"))); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestQueueDispatcher_Enqueues(t *testing.T) {
	q := &fakeEnqueuer{}
	d := NewQueueDispatcher(q, "leads", 5)
	if err := d.DispatchLeadAssigned(context.Background(), "l1"); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if len(q.tasks) != 1 || q.tasks[0].Type() != TaskLeadNotify {
		t.Fatalf("expected one notify task, got %d", len(q.tasks))
	}
	if len(q.opts[0]) != 3 {
		t.Fatalf("expected queue, retry and timeout options, got %d", len(q.opts[0]))
	}

	q.err = errBoom
	if err := d.DispatchLeadAssigned(context.Background(), "l1"); !errors.Is(err, errBoom) {
		t.Fatalf("expected enqueue error, got %v", err)
	}
}

func TestInlineDispatcher_DeliversAfterRequestCancelled(t *testing.T) {
	f := newFixture(t)
	email := &fakeSender{channel: "smtp"}
	d := NewInlineDispatcher(f.service(email))

	ctx, cancel := context.WithCancel(context.Background())
	if err := d.DispatchLeadAssigned(ctx, "l1"); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	cancel()
	d.Wait()

	if email.count() != 1 {
		t.Fatalf("expected delivery, got %d", email.count())
	}
	if st := f.notificationStatus(t, "l1"); st != leads.NotificationSent {
		t.Fatalf("expected sent, got %s", st)
	}
}

func TestWorker_HandleLeadNotify(t *testing.T) {
	f := newFixture(t)
	email := &fakeSender{channel: "smtp"}
	w := &Worker{svc: f.service(email), log: slog.New(slog.NewTextHandler(io.Discard, nil))}

	task, _ := NewLeadNotifyTask(LeadNotifyPayload{LeadID: "l1"})
	if err := w.handleLeadNotify(context.Background(), task); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if email.count() != 1 {
		t.Fatalf("expected delivery")
	}

	missing, _ := NewLeadNotifyTask(LeadNotifyPayload{LeadID: "nope"})
	if err := w.handleLeadNotify(context.Background(), missing); !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected skip retry for unknown lead, got %v", err)
	}
	if err := w.handleLeadNotify(context.Background(), asynq.NewTask(TaskLeadNotify, []byte("{}"))); !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected skip retry for empty payload, got %v", err)
	}

	email.err = errBoom
	if err := w.handleLeadNotify(context.Background(), task); errors.Is(err, asynq.SkipRetry) || err == nil {
		t.Fatalf("expected retryable error, got %v", err)
	}
}
