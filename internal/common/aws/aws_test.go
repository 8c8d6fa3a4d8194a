package aws

import (
	"context"
	"errors"
	"testing"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSES struct {
	input *ses.SendEmailInput
	err   error
}

func (f *fakeSES) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &ses.SendEmailOutput{MessageId: awssdk.String("ses-123")}, nil
}

type fakeSNS struct {
	input *sns.PublishInput
	err   error
}

func (f *fakeSNS) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &sns.PublishOutput{MessageId: awssdk.String("sns-456")}, nil
}

func TestSESClient_SendEmail(t *testing.T) {
	api := &fakeSES{}
	client := NewSESClientWithAPI(api, "leads@automotora.cl")

	id, err := client.SendEmail(context.Background(), "asesor@automotora.cl", "Nuevo lead", "Cuerpo")
	require.NoError(t, err)
	assert.Equal(t, "ses-123", id)
	assert.Equal(t, "leads@automotora.cl", awssdk.ToString(api.input.Source))
	assert.Equal(t, []string{"asesor@automotora.cl"}, api.input.Destination.ToAddresses)
	assert.Equal(t, "Nuevo lead", awssdk.ToString(api.input.Message.Subject.Data))

	api.err = errors.New("throttled")
	_, err = client.SendEmail(context.Background(), "x@y.cl", "s", "b")
	assert.Error(t, err)
}

func TestSNSClient_SendSMS(t *testing.T) {
	t.Run("with sender id", func(t *testing.T) {
		api := &fakeSNS{}
		id, err := NewSNSClientWithAPI(api, "AUTOMOTORA").SendSMS(context.Background(), "+56912345678", "hola")
		require.NoError(t, err)
		assert.Equal(t, "sns-456", id)
		assert.Equal(t, "+56912345678", awssdk.ToString(api.input.PhoneNumber))
		assert.Contains(t, api.input.MessageAttributes, "AWS.SNS.SMS.SenderID")
	})

	t.Run("without sender id", func(t *testing.T) {
		api := &fakeSNS{}
		_, err := NewSNSClientWithAPI(api, "").SendSMS(context.Background(), "+56912345678", "hola")
		require.NoError(t, err)
		assert.NotContains(t, api.input.MessageAttributes, "AWS.SNS.SMS.SenderID")
	})
}
