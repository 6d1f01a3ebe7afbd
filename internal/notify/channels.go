package notify

import (
	"context"
	"fmt"

	"garageleadly/internal/config"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

// awsLoader is swapped in tests.
var awsLoader = LoadAWS

// SendersFromConfig builds one sender per configured channel, in order.
// AWS clients are loaded once and shared by ses and sns.
func SendersFromConfig(ctx context.Context, cfg config.NotifyConfig) ([]Sender, error) {
	var (
		out       []Sender
		sesClient *ses.Client
		snsClient *sns.Client
	)
	loadAWS := func() error {
		if sesClient != nil {
			return nil
		}
		var err error
		sesClient, snsClient, err = awsLoader(ctx, cfg.AWSRegion)
		return err
	}

	for _, ch := range cfg.Channels {
		switch ch {
		case "smtp":
			out = append(out, NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.FromEmail, cfg.FromName))
		case "ses":
			if err := loadAWS(); err != nil {
				return nil, err
			}
			out = append(out, NewSESSender(sesClient, cfg.FromEmail))
		case "sns":
			if err := loadAWS(); err != nil {
				return nil, err
			}
			out = append(out, NewSNSSender(snsClient, cfg.SMSSenderID))
		default:
			return nil, fmt.Errorf("notify: unknown channel %q", ch)
		}
	}
	return out, nil
}
