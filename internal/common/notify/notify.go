// Package notify delivers advisor notifications over SMS, e-mail and WhatsApp.
package notify

import (
	"context"
	"fmt"
	"strings"

	apperrors "dealership-workers/internal/common/errors"
	"dealership-workers/internal/common/logger"
	"dealership-workers/internal/common/metrics"

	"github.com/google/uuid"
)

type Recipient struct {
	Name  string `json:"name,omitempty"`
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
}

type Notification struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenantId"`
	Recipient Recipient `json:"recipient"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
}

// Notifier is what domain services depend on.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// Channel is one delivery mechanism.
type Channel interface {
	Name() string
	// CanReach reports whether the recipient has the address this channel needs.
	CanReach(r Recipient) bool
	Send(ctx context.Context, n Notification) error
}

// Multi fans a notification out to every channel that can reach the recipient.
// It fails only when no channel delivered.
type Multi struct {
	channels []Channel
	logger   logger.Logger
}

func NewMulti(log logger.Logger, channels ...Channel) *Multi {
	return &Multi{
		channels: channels,
		logger:   log.WithFields(map[string]interface{}{"component": "notify"}),
	}
}

func (m *Multi) Channels() []string {
	names := make([]string, len(m.channels))
	for i, ch := range m.channels {
		names[i] = ch.Name()
	}
	return names
}

func (m *Multi) Notify(ctx context.Context, n Notification) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}

	var (
		attempted int
		failures  []string
	)
	for _, ch := range m.channels {
		if !ch.CanReach(n.Recipient) {
			continue
		}
		attempted++
		if err := ch.Send(ctx, n); err != nil {
			metrics.NotificationsSent.WithLabelValues(ch.Name(), "failed").Inc()
			m.logger.Warn("notification channel failed", map[string]interface{}{
				"channel":        ch.Name(),
				"notificationId": n.ID,
				"error":          err,
			})
			failures = append(failures, fmt.Sprintf("%s: %v", ch.Name(), err))
			continue
		}
		metrics.NotificationsSent.WithLabelValues(ch.Name(), "sent").Inc()
	}

	if attempted > 0 && len(failures) == attempted {
		return apperrors.NewNotificationSendFailedError("all", fmt.Errorf("%s", strings.Join(failures, "; ")))
	}
	if attempted == 0 {
		m.logger.Debug("no channel can reach recipient", map[string]interface{}{
			"notificationId": n.ID,
			"recipient":      n.Recipient.Name,
		})
	}
	return nil
}

// Nop drops every notification. Used when no channel is enabled.
type Nop struct{}

func (Nop) Notify(context.Context, Notification) error { return nil }
