package mail

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	gomail "github.com/wneessen/go-mail"
	"golang.org/x/time/rate"

	"github.com/finsight/finsight/internal/config"
)

// smtpMessagesPerSecond matches the relay provider's outbound cap.
const smtpMessagesPerSecond = 14

// SMTPTransport delivers mail through a plain SMTP relay. Sends are rate
// limited to stay under the relay's throughput cap.
type SMTPTransport struct {
	client   *gomail.Client
	from     string
	fromName string
	limiter  *rate.Limiter
}

// NewSMTPTransport creates the relay transport.
func NewSMTPTransport(cfg config.SMTPConfig, fromName, fromAddress string) (*SMTPTransport, error) {
	client, err := gomail.NewClient(cfg.Host,
		gomail.WithPort(cfg.Port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(cfg.Username),
		gomail.WithPassword(cfg.Password),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
	)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	return &SMTPTransport{
		client:   client,
		from:     fromAddress,
		fromName: fromName,
		limiter:  rate.NewLimiter(rate.Limit(smtpMessagesPerSecond), smtpMessagesPerSecond),
	}, nil
}

// Name returns the transport name.
func (t *SMTPTransport) Name() string {
	return ServiceSMTP
}

// Send delivers one message via the relay.
func (t *SMTPTransport) Send(ctx context.Context, msg Message) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("smtp rate limit wait: %w", err)
	}

	m := gomail.NewMsg()
	if err := m.FromFormat(t.fromName, t.from); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := m.To(msg.To); err != nil {
		return fmt.Errorf("smtp to: %w", err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(gomail.TypeTextHTML, msg.HTML)
	if msg.Text != "" {
		m.AddAlternativeString(gomail.TypeTextPlain, msg.Text)
	}
	// Deliverability headers so relayed mail doesn't look bulk-generated.
	m.SetGenHeader("X-Entity-Ref-ID", uuid.NewString())
	m.SetMessageID()

	if err := t.client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}
