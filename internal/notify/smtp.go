package notify

import (
	"context"
	"fmt"
	"net"
	"time"

	gomail "github.com/wneessen/go-mail"
)

// SMTPSender emails the contractor through an SMTP relay.
type SMTPSender struct {
	host      string
	port      int
	username  string
	password  string
	fromName  string
	fromEmail string

	// deliver is swapped in tests.
	deliver func(ctx context.Context, msg *gomail.Msg) error
}

func NewSMTPSender(host string, port int, username, password, fromEmail, fromName string) *SMTPSender {
	s := &SMTPSender{
		host:      host,
		port:      port,
		username:  username,
		password:  password,
		fromName:  fromName,
		fromEmail: fromEmail,
	}
	s.deliver = s.dialAndSend
	return s
}

func (s *SMTPSender) Channel() string { return "smtp" }

func (s *SMTPSender) Send(ctx context.Context, n Notification) error {
	if n.Contractor.Email == "" {
		return ErrNoRecipient
	}
	msg, err := s.message(n)
	if err != nil {
		return err
	}
	return s.deliver(ctx, msg)
}

func (s *SMTPSender) message(n Notification) (*gomail.Msg, error) {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.fromEmail); err != nil {
		return nil, fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(n.Contractor.Email); err != nil {
		return nil, fmt.Errorf("smtp to: %w", err)
	}
	msg.Subject(emailSubject)
	msg.SetBodyString(gomail.TypeTextPlain, RenderText(n))
	msg.AddAlternativeString(gomail.TypeTextHTML, RenderHTML(n))
	return msg, nil
}

func (s *SMTPSender) dialAndSend(ctx context.Context, msg *gomail.Msg) error {
	opts := []gomail.Option{
		gomail.WithPort(s.port),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15 * time.Second),
		gomail.WithDialContextFunc(func(dctx context.Context, _ string, addr string) (net.Conn, error) {
			return (&net.Dialer{}).DialContext(dctx, "tcp4", addr)
		}),
	}
	if s.username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(s.username),
			gomail.WithPassword(s.password),
		)
	}

	client, err := gomail.NewClient(s.host, opts...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}
