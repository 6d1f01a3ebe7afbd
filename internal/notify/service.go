package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"garageleadly/internal/audit"
	"garageleadly/internal/contractors"
	"garageleadly/internal/leads"
	"garageleadly/internal/metrics"
	"garageleadly/pkg/logger"
)

// ErrUndelivered means no channel accepted the notification.
var ErrUndelivered = errors.New("notification not delivered")

type LeadStore interface {
	Get(ctx context.Context, id string) (leads.Lead, error)
	SetNotificationStatus(ctx context.Context, id string, st leads.NotificationStatus) error
}

type ContractorSource interface {
	Get(ctx context.Context, id string) (contractors.Contractor, error)
}

type EventRecorder interface {
	Append(ctx context.Context, e audit.Event) error
}

// Service delivers assignment notifications. A lead counts as notified when at least one
// channel delivered; when every channel fails the lead is flagged for operator resend.
type Service struct {
	leads       LeadStore
	contractors ContractorSource
	senders     []Sender
	audit       EventRecorder
}

func NewService(store LeadStore, roster ContractorSource, recorder EventRecorder, senders ...Sender) *Service {
	return &Service{leads: store, contractors: roster, audit: recorder, senders: senders}
}

// Deliver sends the notification for an assigned lead and records the result on the lead.
func (s *Service) Deliver(ctx context.Context, leadID string) error {
	log := logger.From(ctx).With("lead_id", leadID)

	l, err := s.leads.Get(ctx, leadID)
	if err != nil {
		return err
	}
	if l.ContractorID == "" {
		log.Info("lead no longer assigned, notification skipped")
		return nil
	}
	c, err := s.contractors.Get(ctx, l.ContractorID)
	if err != nil {
		return fmt.Errorf("notify: load contractor: %w", err)
	}

	if len(s.senders) == 0 {
		log.Info("notification channels disabled", "contractor_id", c.ID, "text", RenderSMS(Notification{Lead: l, Contractor: c}))
		return s.leads.SetNotificationStatus(ctx, l.ID, leads.NotificationSent)
	}

	n := Notification{Lead: l, Contractor: c}
	var (
		delivered []string
		failed    []string
		errs      []error
	)
	for _, snd := range s.senders {
		err := snd.Send(ctx, n)
		switch {
		case err == nil:
			delivered = append(delivered, snd.Channel())
			metrics.NotificationsSent.WithLabelValues(snd.Channel()).Inc()
		case errors.Is(err, ErrNoRecipient):
			log.Debug("channel skipped", "channel", snd.Channel())
		default:
			failed = append(failed, snd.Channel())
			errs = append(errs, fmt.Errorf("%s: %w", snd.Channel(), err))
			metrics.NotificationsFailed.WithLabelValues(snd.Channel()).Inc()
			log.Warn("notification channel failed", "channel", snd.Channel(), "error", err)
		}
	}

	if len(failed) > 0 {
		s.recordFailure(ctx, log, l, failed, errors.Join(errs...))
	}
	if len(delivered) == 0 {
		if err := s.leads.SetNotificationStatus(ctx, l.ID, leads.NotificationFailed); err != nil {
			log.Error("flag notification failed", "error", err)
		}
		if len(errs) == 0 {
			return fmt.Errorf("%w: contractor %s has no reachable channel", ErrUndelivered, c.ID)
		}
		return fmt.Errorf("%w: %w", ErrUndelivered, errors.Join(errs...))
	}

	log.Info("lead notification delivered", "contractor_id", c.ID, "channels", strings.Join(delivered, ","))
	return s.leads.SetNotificationStatus(ctx, l.ID, leads.NotificationSent)
}

func (s *Service) recordFailure(ctx context.Context, log *slog.Logger, l leads.Lead, channels []string, cause error) {
	if s.audit == nil {
		return
	}
	err := s.audit.Append(ctx, audit.Event{
		Type:         audit.EventTypeNotificationFailed,
		LeadID:       l.ID,
		ContractorID: l.ContractorID,
		CampaignID:   l.CampaignID,
		Message:      "failed channels: " + strings.Join(channels, ","),
		Metadata:     fmt.Sprintf(`{"error":%q}`, cause.Error()),
	})
	if err != nil {
		log.Warn("audit write failed", "error", err)
	}
}
