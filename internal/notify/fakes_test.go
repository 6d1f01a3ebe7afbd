package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"garageleadly/internal/audit"
	"garageleadly/internal/contractors"
	"garageleadly/internal/leads"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/hibiken/asynq"
)

type fakeSender struct {
	channel string
	err     error

	mu   sync.Mutex
	sent []Notification
}

func (f *fakeSender) Channel() string { return f.channel }

func (f *fakeSender) Send(_ context.Context, n Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, n)
	return nil
}

func (f *fakeSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type fakeSES struct {
	in  *ses.SendEmailInput
	err error
}

func (f *fakeSES) SendEmail(_ context.Context, in *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	f.in = in
	if f.err != nil {
		return nil, f.err
	}
	return &ses.SendEmailOutput{}, nil
}

type fakeSNS struct {
	in  *sns.PublishInput
	err error
}

func (f *fakeSNS) Publish(_ context.Context, in *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.in = in
	if f.err != nil {
		return nil, f.err
	}
	return &sns.PublishOutput{}, nil
}

type fakeEnqueuer struct {
	tasks []*asynq.Task
	opts  [][]asynq.Option
	err   error
}

func (f *fakeEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.tasks = append(f.tasks, task)
	f.opts = append(f.opts, opts)
	return &asynq.TaskInfo{ID: "t1", Queue: "leads"}, nil
}

var errBoom = errors.New("boom")

type fixture struct {
	leads       *leads.MemoryRepo
	contractors *contractors.MemoryRepo
	audit       *audit.MemoryRepo
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		leads:       leads.NewMemoryRepo(),
		contractors: contractors.NewMemoryRepo(),
		audit:       audit.NewMemoryRepo(),
	}
	ctx := context.Background()
	now := time.Date(2024, 3, 5, 15, 0, 0, 0, time.UTC)
	if err := f.contractors.Create(ctx, contractors.Contractor{
		ID: "c1", Name: "Bob", CompanyName: "Bob's Doors", Email: "bob@doors.test", Phone: "+17135550100",
		Counties: []string{"Harris"}, DailyLeadCap: 3, Status: contractors.StatusActive,
		CreatedAt: now, UpdatedAt: now,
	}); err != nil {
		t.Fatalf("create contractor: %v", err)
	}
	if err := f.leads.Create(ctx, leads.Lead{
		ID: "l1", CustomerName: "Ann", Phone: "+17135550199", County: "Harris", City: "Houston",
		JobType: "spring repair", SubmittedAt: now, Status: leads.StatusUnassigned,
		NotificationStatus: leads.NotificationNone, CreatedAt: now, UpdatedAt: now,
	}); err != nil {
		t.Fatalf("create lead: %v", err)
	}
	if _, err := f.leads.Assign(ctx, leads.Assignment{
		LeadID: "l1", ContractorID: "c1", AssignedAt: now, ExpectStatus: leads.StatusUnassigned,
	}); err != nil {
		t.Fatalf("assign: %v", err)
	}
	return f
}

func (f *fixture) service(senders ...Sender) *Service {
	return NewService(f.leads, contractors.NewService(f.contractors), audit.NewService(f.audit), senders...)
}

func (f *fixture) notificationStatus(t *testing.T, id string) leads.NotificationStatus {
	t.Helper()
	l, err := f.leads.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("get lead: %v", err)
	}
	return l.NotificationStatus
}
