package mail

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"
)

// ResendTransport delivers mail through the Resend HTTP API.
type ResendTransport struct {
	client *resend.Client
	from   string // "Name <addr>" sender
}

// NewResendTransport creates the primary API transport.
func NewResendTransport(apiKey, fromName, fromAddress string) *ResendTransport {
	return &ResendTransport{
		client: resend.NewClient(apiKey),
		from:   fmt.Sprintf("%s <%s>", fromName, fromAddress),
	}
}

// Name returns the transport name.
func (t *ResendTransport) Name() string {
	return ServiceResend
}

// Send delivers one message via the API.
func (t *ResendTransport) Send(ctx context.Context, msg Message) error {
	params := &resend.SendEmailRequest{
		From:    t.from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Html:    msg.HTML,
		Text:    msg.Text,
	}
	if _, err := t.client.Emails.SendWithContext(ctx, params); err != nil {
		return fmt.Errorf("resend send: %w", err)
	}
	return nil
}
