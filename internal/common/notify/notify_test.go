package notify

import (
	"context"
	"errors"
	"testing"

	apperrors "dealership-workers/internal/common/errors"
	"dealership-workers/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSMS struct {
	phone, message string
	err            error
}

func (f *fakeSMS) SendSMS(_ context.Context, phone, message string) (string, error) {
	f.phone, f.message = phone, message
	return "sms-1", f.err
}

type fakeEmail struct {
	to, subject string
	err         error
}

func (f *fakeEmail) SendEmail(_ context.Context, to, subject, body string) (string, error) {
	f.to, f.subject = to, subject
	return "email-1", f.err
}

type fakeWhatsApp struct {
	sent []string
	err  error
}

func (f *fakeWhatsApp) SendText(_ context.Context, phone, text string) error {
	f.sent = append(f.sent, phone+"|"+text)
	return f.err
}

func TestMulti_Notify(t *testing.T) {
	sms := &fakeSMS{}
	email := &fakeEmail{}
	wa := &fakeWhatsApp{}
	m := NewMulti(logger.NewTestLogger(t), NewSMSChannel(sms), NewEmailChannel(email), NewWhatsAppChannel(wa))
	assert.Equal(t, []string{"sms", "email", "whatsapp"}, m.Channels())

	err := m.Notify(context.Background(), Notification{
		TenantID:  "tenant-1",
		Recipient: Recipient{Name: "Pedro", Phone: "+56912345678", Email: "pedro@automotora.cl"},
		Subject:   "Nuevo lead asignado",
		Body:      "Ana Rojas quiere comprar un Corolla",
	})
	require.NoError(t, err)
	assert.Equal(t, "+56912345678", sms.phone)
	assert.Equal(t, "Nuevo lead asignado: Ana Rojas quiere comprar un Corolla", sms.message)
	assert.Equal(t, "pedro@automotora.cl", email.to)
	assert.Len(t, wa.sent, 1)
}

func TestMulti_SkipsUnreachableChannels(t *testing.T) {
	sms := &fakeSMS{}
	email := &fakeEmail{}
	m := NewMulti(logger.NewTestLogger(t), NewSMSChannel(sms), NewEmailChannel(email))

	require.NoError(t, m.Notify(context.Background(), Notification{Recipient: Recipient{Email: "a@b.cl"}, Body: "x"}))
	assert.Empty(t, sms.phone)
	assert.Equal(t, "a@b.cl", email.to)

	assert.NoError(t, m.Notify(context.Background(), Notification{Recipient: Recipient{Name: "sin datos"}}))
}

func TestMulti_PartialAndTotalFailure(t *testing.T) {
	sms := &fakeSMS{err: errors.New("throttled")}
	wa := &fakeWhatsApp{}
	m := NewMulti(logger.NewTestLogger(t), NewSMSChannel(sms), NewWhatsAppChannel(wa))
	recipient := Recipient{Phone: "+56912345678"}

	assert.NoError(t, m.Notify(context.Background(), Notification{Recipient: recipient, Body: "x"}))

	wa.err = errors.New("not connected")
	err := m.Notify(context.Background(), Notification{Recipient: recipient, Body: "x"})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeNotificationSendFailed))
}

func TestPhoneToJID(t *testing.T) {
	jid, err := PhoneToJID("+56 9 1234 5678")
	require.NoError(t, err)
	assert.Equal(t, "56912345678", jid.User)
	assert.Equal(t, "s.whatsapp.net", jid.Server)

	_, err = PhoneToJID("123")
	assert.Error(t, err)
}

func TestJoinText(t *testing.T) {
	assert.Equal(t, "a: b", joinText("a", "b"))
	assert.Equal(t, "b", joinText("", "b"))
	assert.Equal(t, "a", joinText(" a ", ""))
}
