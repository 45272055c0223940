package aws

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// SESService is the part of the SES API used to send mail.
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SESClient sends plain notification emails from one sender address.
type SESClient struct {
	api  SESService
	from string
}

// NewSESClient builds a client on cfg.
func NewSESClient(cfg aws.Config, from string) *SESClient {
	return NewSESClientWithAPI(ses.NewFromConfig(cfg), from)
}

// NewSESClientWithAPI wraps an existing SES implementation.
func NewSESClientWithAPI(api SESService, from string) *SESClient {
	return &SESClient{api: api, from: from}
}

// Send delivers one email to a single recipient.
func (c *SESClient) Send(ctx context.Context, to, subject, body string) error {
	if to == "" {
		return errors.New("ses: recipient address is empty")
	}
	_, err := c.api.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(c.from),
	})
	return err
}
