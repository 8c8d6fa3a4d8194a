package notify

import (
	"context"
	"strings"

	apperrors "dealership-workers/internal/common/errors"
)

type SMSSender interface {
	SendSMS(ctx context.Context, phone, message string) (string, error)
}

type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) (string, error)
}

// SMSChannel sends the subject and body as one text message.
type SMSChannel struct {
	sender SMSSender
}

func NewSMSChannel(sender SMSSender) *SMSChannel {
	return &SMSChannel{sender: sender}
}

func (c *SMSChannel) Name() string { return "sms" }

func (c *SMSChannel) CanReach(r Recipient) bool { return r.Phone != "" }

func (c *SMSChannel) Send(ctx context.Context, n Notification) error {
	if _, err := c.sender.SendSMS(ctx, n.Recipient.Phone, joinText(n.Subject, n.Body)); err != nil {
		return apperrors.NewNotificationSendFailedError(c.Name(), err)
	}
	return nil
}

type EmailChannel struct {
	sender EmailSender
}

func NewEmailChannel(sender EmailSender) *EmailChannel {
	return &EmailChannel{sender: sender}
}

func (c *EmailChannel) Name() string { return "email" }

func (c *EmailChannel) CanReach(r Recipient) bool { return r.Email != "" }

func (c *EmailChannel) Send(ctx context.Context, n Notification) error {
	if _, err := c.sender.SendEmail(ctx, n.Recipient.Email, n.Subject, n.Body); err != nil {
		return apperrors.NewNotificationSendFailedError(c.Name(), err)
	}
	return nil
}

func joinText(subject, body string) string {
	subject, body = strings.TrimSpace(subject), strings.TrimSpace(body)
	switch {
	case subject == "":
		return body
	case body == "":
		return subject
	}
	return subject + ": " + body
}
