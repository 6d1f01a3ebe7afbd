package audit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence contract for audit events. Append-only.
type Repository interface {
	Append(ctx context.Context, e Event) error
	ListByLead(ctx context.Context, leadID string, limit int) ([]Event, error)
}

// Service logs internal audit information.
// Audit is internal-only; contractors never see these records.
type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

var ErrInvalidEvent = errors.New("audit: invalid event")

func (s *Service) Append(ctx context.Context, e Event) error {
	if s == nil || s.repo == nil {
		return errors.New("audit: repository not configured")
	}
	if e.Type == "" {
		return ErrInvalidEvent
	}
	if e.LeadID == "" && e.ContractorID == "" {
		return ErrInvalidEvent
	}

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.clock().UTC()
	}
	return s.repo.Append(ctx, e)
}

// LeadHistory returns the newest events for a lead first.
func (s *Service) LeadHistory(ctx context.Context, leadID string, limit int) ([]Event, error) {
	if leadID == "" {
		return nil, ErrInvalidEvent
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.repo.ListByLead(ctx, leadID, limit)
}

// LogStaffAction records an operator action against a contractor account.
func (s *Service) LogStaffAction(ctx context.Context, t EventType, actorUserID, actorRole, ip, contractorID, message string) error {
	return s.Append(ctx, Event{
		Type:         t,
		ActorUserID:  actorUserID,
		ActorRole:    actorRole,
		IPAddress:    ip,
		ContractorID: contractorID,
		Message:      message,
	})
}
