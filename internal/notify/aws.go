package notify

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
)

// SESAPI is the part of the SES client used here.
type SESAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SNSAPI is the part of the SNS client used here.
type SNSAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// LoadAWS builds SES and SNS clients from the default credential chain.
func LoadAWS(ctx context.Context, region string) (*ses.Client, *sns.Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, nil, fmt.Errorf("aws config: %w", err)
	}
	return ses.NewFromConfig(cfg), sns.NewFromConfig(cfg), nil
}

type SESSender struct {
	api  SESAPI
	from string
}

func NewSESSender(api SESAPI, fromEmail string) *SESSender {
	return &SESSender{api: api, from: fromEmail}
}

func (s *SESSender) Channel() string { return "ses" }

func (s *SESSender) Send(ctx context.Context, n Notification) error {
	if n.Contractor.Email == "" {
		return ErrNoRecipient
	}
	_, err := s.api.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &sestypes.Destination{ToAddresses: []string{n.Contractor.Email}},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{Data: aws.String(emailSubject)},
			Body: &sestypes.Body{
				Text: &sestypes.Content{Data: aws.String(RenderText(n))},
				Html: &sestypes.Content{Data: aws.String(RenderHTML(n))},
			},
		},
		Source: aws.String(s.from),
	})
	if err != nil {
		return fmt.Errorf("ses send: %w", err)
	}
	return nil
}

// SNSSender texts the contractor's phone directly.
type SNSSender struct {
	api      SNSAPI
	senderID string
}

func NewSNSSender(api SNSAPI, senderID string) *SNSSender {
	return &SNSSender{api: api, senderID: senderID}
}

func (s *SNSSender) Channel() string { return "sns" }

func (s *SNSSender) Send(ctx context.Context, n Notification) error {
	if n.Contractor.Phone == "" {
		return ErrNoRecipient
	}
	attrs := map[string]snstypes.MessageAttributeValue{
		"AWS.SNS.SMS.SMSType": {DataType: aws.String("String"), StringValue: aws.String("Transactional")},
	}
	if s.senderID != "" {
		attrs["AWS.SNS.SMS.SenderID"] = snstypes.MessageAttributeValue{DataType: aws.String("String"), StringValue: aws.String(s.senderID)}
	}
	_, err := s.api.Publish(ctx, &sns.PublishInput{
		PhoneNumber:       aws.String(n.Contractor.Phone),
		Message:           aws.String(RenderSMS(n)),
		MessageAttributes: attrs,
	})
	if err != nil {
		return fmt.Errorf("sns publish: %w", err)
	}
	return nil
}
