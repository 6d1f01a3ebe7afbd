package contractors

import (
	"context"
	"errors"
	"testing"
)

func newTestService() *Service { return NewService(NewMemoryRepo()) }

func mustCreate(t *testing.T, s *Service) Contractor {
	t.Helper()
	c, err := s.Create(context.Background(), CreateRequest{
		Name:         "Mike Torres",
		CompanyName:  "Torres Overhead Doors",
		Email:        "Mike@Torres.test",
		Phone:        "(832) 555-0199",
		Counties:     []string{"Harris", "harris", " Fort Bend "},
		DailyLeadCap: 3,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return c
}

func TestCreate_NormalizesAndActivates(t *testing.T) {
	s := newTestService()
	c := mustCreate(t, s)

	if c.Status != StatusActive {
		t.Fatalf("expected active, got %q", c.Status)
	}
	if c.Phone != "+18325550199" || c.Email != "mike@torres.test" {
		t.Fatalf("unexpected normalization: %+v", c)
	}
	if len(c.Counties) != 2 || c.Counties[1] != "Fort Bend" {
		t.Fatalf("expected deduped counties, got %v", c.Counties)
	}
}

func TestCreate_RequiresTerritory(t *testing.T) {
	s := newTestService()
	_, err := s.Create(context.Background(), CreateRequest{Name: "x", Email: "x@y.test"})
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestUpdateTerritory_PartialUpdate(t *testing.T) {
	s := newTestService()
	c := mustCreate(t, s)

	newCap := 10
	got, err := s.UpdateTerritory(context.Background(), c.ID, TerritoryUpdate{DailyLeadCap: &newCap})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.DailyLeadCap != 10 || len(got.Counties) != 2 {
		t.Fatalf("unexpected contractor: %+v", got)
	}

	got, err = s.UpdateTerritory(context.Background(), c.ID, TerritoryUpdate{Counties: []string{"Galveston"}})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(got.Counties) != 1 || got.Counties[0] != "Galveston" || got.DailyLeadCap != 10 {
		t.Fatalf("unexpected contractor: %+v", got)
	}
}

func TestSetStatus_DeactivateRemovesFromActive(t *testing.T) {
	s := newTestService()
	c := mustCreate(t, s)

	if _, err := s.SetStatus(context.Background(), c.ID, StatusInactive); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	active, _ := s.ListActive(context.Background())
	if len(active) != 0 {
		t.Fatalf("expected no active contractors, got %d", len(active))
	}
	all, _ := s.List(context.Background())
	if len(all) != 1 {
		t.Fatalf("inactive contractors must be kept, got %d", len(all))
	}
	if _, err := s.SetStatus(context.Background(), c.ID, "banned"); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestCampaigns_CRUDScopedToOwner(t *testing.T) {
	s := newTestService()
	ctx := context.Background()
	c := mustCreate(t, s)
	other := mustCreate(t, s)

	camp, err := s.CreateCampaign(ctx, c.ID, CampaignRequest{Name: "Spring special", Counties: []string{"Harris"}, JobTypes: []string{"spring_replacement"}})
	if err != nil {
		t.Fatalf("create campaign: %v", err)
	}
	if camp.DailyCap != DefaultCampaignCap || camp.Status != CampaignActive {
		t.Fatalf("unexpected defaults: %+v", camp)
	}

	if _, err := s.CreateCampaign(ctx, c.ID, CampaignRequest{Name: "no jobs", Counties: []string{"Harris"}}); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected job types required, got %v", err)
	}

	if _, err := s.UpdateCampaign(ctx, other.ID, camp.ID, CampaignRequest{Name: "x", Counties: []string{"a"}, JobTypes: []string{"b"}}); !errors.Is(err, ErrCampaignNotFound) {
		t.Fatalf("expected other contractor to be denied, got %v", err)
	}

	campCap := 2
	upd, err := s.UpdateCampaign(ctx, c.ID, camp.ID, CampaignRequest{Name: "Spring", Counties: []string{"Harris"}, JobTypes: []string{"spring_replacement"}, DailyCap: &campCap, Status: CampaignPaused})
	if err != nil {
		t.Fatalf("update campaign: %v", err)
	}
	if upd.DailyCap != 2 || upd.Active() {
		t.Fatalf("unexpected campaign: %+v", upd)
	}
	active, _ := s.ListActiveCampaigns(ctx)
	if len(active) != 0 {
		t.Fatalf("paused campaign listed as active")
	}

	if err := s.DeleteCampaign(ctx, c.ID, camp.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	list, _ := s.ListCampaigns(ctx, c.ID)
	if len(list) != 0 {
		t.Fatalf("expected campaign deleted")
	}
}

func TestCreateCampaign_ExplicitZeroCapKept(t *testing.T) {
	s := newTestService()
	ctx := context.Background()
	c := mustCreate(t, s)

	zero := 0
	camp, err := s.CreateCampaign(ctx, c.ID, CampaignRequest{Name: "Paused budget", Counties: []string{"Harris"}, JobTypes: []string{"opener_repair"}, DailyCap: &zero})
	if err != nil {
		t.Fatalf("create campaign: %v", err)
	}
	if camp.DailyCap != 0 {
		t.Fatalf("expected explicit zero cap kept, got %d", camp.DailyCap)
	}
	got, err := s.Campaign(ctx, c.ID, camp.ID)
	if err != nil || got.DailyCap != 0 {
		t.Fatalf("expected stored zero cap, got %+v err=%v", got, err)
	}
}

func TestFindByBillingCustomer(t *testing.T) {
	s := newTestService()
	c := mustCreate(t, s)
	if _, err := s.AttachBilling(context.Background(), c.ID, "cus_123", "pm_123"); err != nil {
		t.Fatalf("attach: %v", err)
	}
	got, err := s.FindByBillingCustomer(context.Background(), "cus_123")
	if err != nil || got.ID != c.ID {
		t.Fatalf("expected %s, got %+v err=%v", c.ID, got, err)
	}
	if _, err := s.FindByBillingCustomer(context.Background(), "cus_missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
