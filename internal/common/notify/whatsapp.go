package notify

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	apperrors "dealership-workers/internal/common/errors"

	_ "github.com/mattn/go-sqlite3" // session store driver
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	waLog "go.mau.fi/whatsmeow/util/log"
	"google.golang.org/protobuf/proto"
)

// WhatsAppSender delivers a text message to a phone number.
type WhatsAppSender interface {
	SendText(ctx context.Context, phone, text string) error
}

type WhatsAppChannel struct {
	sender WhatsAppSender
}

func NewWhatsAppChannel(sender WhatsAppSender) *WhatsAppChannel {
	return &WhatsAppChannel{sender: sender}
}

func (c *WhatsAppChannel) Name() string { return "whatsapp" }

func (c *WhatsAppChannel) CanReach(r Recipient) bool { return r.Phone != "" }

func (c *WhatsAppChannel) Send(ctx context.Context, n Notification) error {
	if err := c.sender.SendText(ctx, n.Recipient.Phone, joinText(n.Subject, n.Body)); err != nil {
		return apperrors.NewNotificationSendFailedError(c.Name(), err)
	}
	return nil
}

// WhatsAppClient is a whatsmeow session backed by a local SQLite store. The
// device must already be paired; this process never shows a QR code.
type WhatsAppClient struct {
	container *sqlstore.Container
	client    *whatsmeow.Client
}

func NewWhatsAppClient(ctx context.Context, sessionPath string) (*WhatsAppClient, error) {
	if err := os.MkdirAll(filepath.Dir(sessionPath), 0o755); err != nil {
		return nil, fmt.Errorf("create whatsapp session directory: %w", err)
	}

	container, err := sqlstore.New(ctx, "sqlite3", fmt.Sprintf("file:%s?_foreign_keys=on", sessionPath), waLog.Noop)
	if err != nil {
		return nil, fmt.Errorf("open whatsapp session store: %w", err)
	}

	device, err := container.GetFirstDevice(ctx)
	if err != nil {
		container.Close()
		return nil, fmt.Errorf("load whatsapp device: %w", err)
	}

	client := whatsmeow.NewClient(device, waLog.Noop)
	if client.Store.ID == nil {
		container.Close()
		return nil, fmt.Errorf("whatsapp session at %s is not paired", sessionPath)
	}
	if err := client.Connect(); err != nil {
		container.Close()
		return nil, fmt.Errorf("connect whatsapp: %w", err)
	}

	return &WhatsAppClient{container: container, client: client}, nil
}

func (w *WhatsAppClient) SendText(ctx context.Context, phone, text string) error {
	if !w.client.IsConnected() {
		return fmt.Errorf("whatsapp client is not connected")
	}
	jid, err := PhoneToJID(phone)
	if err != nil {
		return err
	}
	_, err = w.client.SendMessage(ctx, jid, &waE2E.Message{Conversation: proto.String(text)})
	return err
}

func (w *WhatsAppClient) Close() error {
	w.client.Disconnect()
	return w.container.Close()
}

// PhoneToJID maps an E.164 number to a WhatsApp user JID.
func PhoneToJID(phone string) (types.JID, error) {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, phone)
	if len(digits) < 8 {
		return types.JID{}, fmt.Errorf("invalid whatsapp phone %q", phone)
	}
	return types.NewJID(digits, types.DefaultUserServer), nil
}
