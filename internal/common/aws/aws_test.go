package aws

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSES struct {
	input *ses.SendEmailInput
	err   error
}

func (f *fakeSES) SendEmail(_ context.Context, params *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	f.input = params
	return &ses.SendEmailOutput{}, f.err
}

type fakeSNS struct {
	input *sns.PublishInput
	err   error
}

func (f *fakeSNS) Publish(_ context.Context, params *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.input = params
	return &sns.PublishOutput{}, f.err
}

func TestSESClient_Send(t *testing.T) {
	api := &fakeSES{}
	c := NewSESClientWithAPI(api, "noreply@shelter.example")

	require.NoError(t, c.Send(context.Background(), "ada@example.com", "Application approved", "Congratulations"))
	require.NotNil(t, api.input)
	assert.Equal(t, []string{"ada@example.com"}, api.input.Destination.ToAddresses)
	assert.Equal(t, "noreply@shelter.example", *api.input.Source)
	assert.Equal(t, "Application approved", *api.input.Message.Subject.Data)
	assert.Equal(t, "Congratulations", *api.input.Message.Body.Text.Data)
}

func TestSESClient_SendErrors(t *testing.T) {
	api := &fakeSES{err: errors.New("throttled")}
	c := NewSESClientWithAPI(api, "noreply@shelter.example")

	assert.Error(t, c.Send(context.Background(), "", "s", "b"))
	assert.Nil(t, api.input)
	assert.EqualError(t, c.Send(context.Background(), "ada@example.com", "s", "b"), "throttled")
}

func TestSNSClient_SendSMS(t *testing.T) {
	api := &fakeSNS{}
	c := NewSNSClientWithAPI(api, "SHELTER")

	require.NoError(t, c.SendSMS(context.Background(), "+15555550100", "approved"))
	assert.Equal(t, "+15555550100", *api.input.PhoneNumber)
	assert.Equal(t, "Transactional", *api.input.MessageAttributes["AWS.SNS.SMS.SMSType"].StringValue)
	assert.Equal(t, "SHELTER", *api.input.MessageAttributes["AWS.SNS.SMS.SenderID"].StringValue)

	noSender := NewSNSClientWithAPI(api, "")
	require.NoError(t, noSender.SendSMS(context.Background(), "+15555550100", "hi"))
	_, ok := api.input.MessageAttributes["AWS.SNS.SMS.SenderID"]
	assert.False(t, ok)

	assert.Error(t, c.SendSMS(context.Background(), "", "hi"))
}
