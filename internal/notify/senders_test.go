package notify

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"garageleadly/internal/contractors"
	"garageleadly/internal/leads"

	"github.com/aws/aws-sdk-go-v2/aws"
	gomail "github.com/wneessen/go-mail"
)

func sample() Notification {
	return Notification{
		Lead: leads.Lead{
			ID: "l1", CustomerName: "Ann Lee", Phone: "+17135550199", Email: "ann@example.test",
			City: "Houston", County: "Harris", Zip: "77002", JobType: "spring repair", Issue: "door stuck <half> open",
		},
		Contractor: contractors.Contractor{ID: "c1", Email: "bob@doors.test", Phone: "+17135550100"},
	}
}

func TestRenderText_HasLeadDetails(t *testing.T) {
	text := RenderText(sample())
	for _, want := range []string{"NEW LEAD - GarageLeadly", "Name: Ann Lee", "County: Harris", "ZIP: 77002", "CALL NOW"} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected %q in\n%s", want, text)
		}
	}
	if !strings.Contains(RenderText(Notification{}), "Address: -") {
		t.Fatalf("expected dash for empty fields")
	}
}

func TestRenderHTML_Escapes(t *testing.T) {
	out := RenderHTML(sample())
	if strings.Contains(out, "<half>") || !strings.Contains(out, "&lt;half&gt;") {
		t.Fatalf("expected escaped issue, got %s", out)
	}
	if !strings.Contains(out, "<br>") {
		t.Fatalf("expected line breaks")
	}
}

func TestRenderSMS_Compact(t *testing.T) {
	out := RenderSMS(sample())
	if !strings.HasPrefix(out, "NEW LEAD - GarageLeadly | Ann Lee | ") || !strings.HasSuffix(out, "Houston, Harris | spring repair | CALL NOW") {
		t.Fatalf("unexpected sms: %s", out)
	}
}

func TestSESSender(t *testing.T) {
	api := &fakeSES{}
	s := NewSESSender(api, "leads@garageleadly.test")
	if err := s.Send(context.Background(), sample()); err != nil {
		t.Fatalf("send: %v", err)
	}
	if got := api.in.Destination.ToAddresses; len(got) != 1 || got[0] != "bob@doors.test" {
		t.Fatalf("unexpected recipients: %v", got)
	}
	if aws.ToString(api.in.Source) != "leads@garageleadly.test" || aws.ToString(api.in.Message.Subject.Data) != emailSubject {
		t.Fatalf("unexpected envelope: %+v", api.in)
	}

	n := sample()
	n.Contractor.Email = ""
	if err := s.Send(context.Background(), n); !errors.Is(err, ErrNoRecipient) {
		t.Fatalf("expected no recipient, got %v", err)
	}

	api.err = errBoom
	if err := s.Send(context.Background(), sample()); !errors.Is(err, errBoom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}

func TestSNSSender(t *testing.T) {
	api := &fakeSNS{}
	s := NewSNSSender(api, "GLEADLY")
	if err := s.Send(context.Background(), sample()); err != nil {
		t.Fatalf("send: %v", err)
	}
	if aws.ToString(api.in.PhoneNumber) != "+17135550100" {
		t.Fatalf("unexpected phone: %s", aws.ToString(api.in.PhoneNumber))
	}
	if v := api.in.MessageAttributes["AWS.SNS.SMS.SenderID"]; aws.ToString(v.StringValue) != "GLEADLY" {
		t.Fatalf("expected sender id attribute")
	}
	if v := api.in.MessageAttributes["AWS.SNS.SMS.SMSType"]; aws.ToString(v.StringValue) != "Transactional" {
		t.Fatalf("expected transactional sms type")
	}

	n := sample()
	n.Contractor.Phone = ""
	if err := s.Send(context.Background(), n); !errors.Is(err, ErrNoRecipient) {
		t.Fatalf("expected no recipient, got %v", err)
	}
}

func TestSMTPSender_BuildsMessage(t *testing.T) {
	s := NewSMTPSender("mail.local", 587, "", "", "leads@garageleadly.test", "GarageLeadly")
	var captured *gomail.Msg
	s.deliver = func(_ context.Context, msg *gomail.Msg) error {
		captured = msg
		return nil
	}

	if err := s.Send(context.Background(), sample()); err != nil {
		t.Fatalf("send: %v", err)
	}
	if captured == nil {
		t.Fatalf("expected message to be delivered")
	}
	var buf bytes.Buffer
	if _, err := captured.WriteTo(&buf); err != nil {
		t.Fatalf("write: %v", err)
	}
	raw := buf.String()
	for _, want := range []string{"bob@doors.test", "leads@garageleadly.test", emailSubject} {
		if !strings.Contains(raw, want) {
			t.Fatalf("expected %q in message", want)
		}
	}

	n := sample()
	n.Contractor.Email = ""
	captured = nil
	if err := s.Send(context.Background(), n); !errors.Is(err, ErrNoRecipient) || captured != nil {
		t.Fatalf("expected skip without recipient, got %v", err)
	}
}
