package routing

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"garageleadly/internal/contractors"
	"garageleadly/internal/leads"
)

var chicago = mustLoad("America/Chicago")

func mustLoad(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

// testNow is mid-afternoon in Chicago.
var testNow = time.Date(2024, 3, 5, 15, 0, 0, 0, chicago)

type fixture struct {
	leads   *leads.MemoryRepo
	roster  *contractors.MemoryRepo
	counter *MemoryCounter
	audit   *memAudit
	notify  *recordingDispatcher
	biller  *recordingBiller
	a       *Assigner
	seq     int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		leads:   leads.NewMemoryRepo(),
		roster:  contractors.NewMemoryRepo(),
		counter: NewMemoryCounter(),
		audit:   &memAudit{},
		notify:  &recordingDispatcher{},
		biller:  &recordingBiller{},
	}
	q := NewQuotaChecker(f.counter, f.leads, chicago)
	f.a = NewAssigner(f.leads, contractors.NewService(f.roster), q)
	f.a.Audit = f.audit
	f.a.Dispatcher = f.notify
	f.a.Biller = f.biller
	f.a.clock = func() time.Time { return testNow }
	return f
}

func (f *fixture) contractor(t *testing.T, id string, limit int, counties ...string) contractors.Contractor {
	t.Helper()
	c := contractors.Contractor{ID: id, Name: id, Counties: counties, DailyLeadCap: limit, Status: contractors.StatusActive}
	if err := f.roster.Create(context.Background(), c); err != nil {
		t.Fatalf("create contractor: %v", err)
	}
	return c
}

func (f *fixture) campaign(t *testing.T, id, contractorID string, limit int, counties ...string) contractors.Campaign {
	t.Helper()
	c := contractors.Campaign{ID: id, ContractorID: contractorID, Name: id, Counties: counties, DailyCap: limit, Status: contractors.CampaignActive}
	if err := f.roster.CreateCampaign(context.Background(), c); err != nil {
		t.Fatalf("create campaign: %v", err)
	}
	return c
}

func (f *fixture) lead(t *testing.T, county string) leads.Lead {
	t.Helper()
	f.seq++
	l := leads.Lead{
		ID:          fmt.Sprintf("lead-%03d", f.seq),
		County:      county,
		SubmittedAt: testNow,
		Status:      leads.StatusUnassigned,
	}
	if err := f.leads.Create(context.Background(), l); err != nil {
		t.Fatalf("create lead: %v", err)
	}
	return l
}

// delivered stores n leads already assigned to contractorID today.
func (f *fixture) delivered(t *testing.T, contractorID string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		f.seq++
		at := testNow.Add(-time.Duration(i+1) * time.Minute)
		l := leads.Lead{
			ID:           fmt.Sprintf("lead-%03d", f.seq),
			County:       "Harris",
			SubmittedAt:  at,
			Status:       leads.StatusAssigned,
			ContractorID: contractorID,
			AssignedAt:   &at,
		}
		if err := f.leads.Create(context.Background(), l); err != nil {
			t.Fatalf("create lead: %v", err)
		}
	}
}

func (f *fixture) countFor(t *testing.T, contractorID string) int {
	t.Helper()
	d := DayOf(testNow, chicago)
	n, err := f.leads.CountDelivered(context.Background(), contractorID, d.Start, d.End)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

type memAudit struct {
	mu     sync.Mutex
	events []AssignmentAuditEvent
}

func (m *memAudit) LogAssignment(ctx context.Context, e AssignmentAuditEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	return nil
}

func (m *memAudit) kinds() []Reason {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Reason, 0, len(m.events))
	for _, e := range m.events {
		out = append(out, e.Kind)
	}
	return out
}

type recordingDispatcher struct {
	mu    sync.Mutex
	leads []string
	err   error
}

func (d *recordingDispatcher) DispatchLeadAssigned(ctx context.Context, leadID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.leads = append(d.leads, leadID)
	return d.err
}

type recordingBiller struct {
	mu      sync.Mutex
	charged []string
	err     error
}

func (b *recordingBiller) ChargeLead(ctx context.Context, l leads.Lead, c contractors.Contractor) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.charged = append(b.charged, l.ID+":"+c.ID)
	return b.err
}
