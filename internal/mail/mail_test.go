package mail

import (
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finsight/finsight/internal/logging"
)

// fakeTransport records sends and fails on demand.
type fakeTransport struct {
	name  string
	err   error
	sends []Message
}

func (f *fakeTransport) Name() string { return f.name }
func (f *fakeTransport) Send(ctx context.Context, msg Message) error {
	f.sends = append(f.sends, msg)
	return f.err
}

func newTestService(primary, direct *fakeTransport) *Service {
	log := logging.New(io.Discard, logging.Options{Level: "silent", Style: "json"})
	var p Transport
	if primary != nil {
		p = primary
	}
	return NewService(p, direct, "Finsight", "https://finsight.app", log)
}

func TestSendPrimarySucceeds(t *testing.T) {
	primary := &fakeTransport{name: ServiceResend}
	direct := &fakeTransport{name: ServiceSMTP}
	svc := newTestService(primary, direct)

	res := svc.Send(context.Background(), CategoryWelcome, Message{To: "a@b.c", Subject: "hi", HTML: "<p>hi</p>"})
	assert.Equal(t, ServiceResend, res.Service)
	assert.True(t, res.Delivered())
	assert.Len(t, primary.sends, 1)
	assert.Empty(t, direct.sends, "relay should not be touched when primary succeeds")
}

func TestSendFallsBackOnRateLimit(t *testing.T) {
	primary := &fakeTransport{name: ServiceResend, err: fmt.Errorf("daily limit reached, rate limit exceeded")}
	direct := &fakeTransport{name: ServiceSMTP}
	svc := newTestService(primary, direct)

	res := svc.Send(context.Background(), CategoryWelcome, Message{To: "a@b.c", Subject: "hi", HTML: "<p>hi</p>"})
	assert.Equal(t, ServiceSMTPFallback, res.Service)
	assert.NoError(t, res.Err)
	assert.Len(t, primary.sends, 1)
	assert.Len(t, direct.sends, 1, "relay invoked exactly once")
}

func TestSendFallsBackOnAnyPrimaryFailure(t *testing.T) {
	primary := &fakeTransport{name: ServiceResend, err: fmt.Errorf("invalid api key")}
	direct := &fakeTransport{name: ServiceSMTP}
	svc := newTestService(primary, direct)

	res := svc.Send(context.Background(), CategoryExpertApplication, Message{To: "a@b.c", Subject: "hi", HTML: "<p>hi</p>"})
	assert.Equal(t, ServiceSMTPFallback, res.Service)
	assert.Len(t, direct.sends, 1)
}

func TestSendBothTransportsFail(t *testing.T) {
	primary := &fakeTransport{name: ServiceResend, err: fmt.Errorf("api down")}
	direct := &fakeTransport{name: ServiceSMTP, err: fmt.Errorf("connection refused")}
	svc := newTestService(primary, direct)

	res := svc.Send(context.Background(), CategoryWelcome, Message{To: "a@b.c", Subject: "hi", HTML: "<p>hi</p>"})
	assert.Equal(t, ServiceFailed, res.Service)
	assert.False(t, res.Delivered())
	require.Error(t, res.Err)
	assert.Contains(t, res.Err.Error(), "api down")
	assert.Contains(t, res.Err.Error(), "connection refused")
}

func TestSendNoPrimaryConfigured(t *testing.T) {
	direct := &fakeTransport{name: ServiceSMTP}
	svc := newTestService(nil, direct)

	res := svc.Send(context.Background(), CategoryWelcome, Message{To: "a@b.c", Subject: "hi", HTML: "<p>hi</p>"})
	assert.Equal(t, ServiceSMTPFallback, res.Service)
	assert.Len(t, direct.sends, 1)
}

func TestAdminNotificationGoesDirect(t *testing.T) {
	primary := &fakeTransport{name: ServiceResend}
	direct := &fakeTransport{name: ServiceSMTP}
	svc := newTestService(primary, direct)

	res := svc.SendAdminNotification(context.Background(), "admin@finsight.app", "New signup", "user a@b.c registered")
	assert.Equal(t, ServiceSMTP, res.Service)
	assert.Empty(t, primary.sends, "admin mail must not ride the API transport")
	require.Len(t, direct.sends, 1)
	assert.Contains(t, direct.sends[0].HTML, "New signup")
}

func TestUnknownCategoryGoesDirect(t *testing.T) {
	primary := &fakeTransport{name: ServiceResend}
	direct := &fakeTransport{name: ServiceSMTP}
	svc := newTestService(primary, direct)

	res := svc.Send(context.Background(), Category("newsletter"), Message{To: "a@b.c", Subject: "hi", HTML: "x"})
	assert.Equal(t, ServiceSMTP, res.Service)
	assert.Empty(t, primary.sends)
}

func TestSendWelcomeTemplate(t *testing.T) {
	primary := &fakeTransport{name: ServiceResend}
	direct := &fakeTransport{name: ServiceSMTP}
	svc := newTestService(primary, direct)

	res := svc.SendWelcome(context.Background(), "ada@example.com", "Ada")
	assert.Equal(t, ServiceResend, res.Service)
	require.Len(t, primary.sends, 1)

	sent := primary.sends[0]
	assert.Equal(t, "Welcome to Finsight!", sent.Subject)
	assert.Contains(t, sent.HTML, "Welcome to Finsight, Ada!")
	assert.Contains(t, sent.HTML, "https://finsight.app")
	assert.Contains(t, sent.Text, "Welcome to Finsight, Ada!")
	assert.NotContains(t, sent.Text, "<p>")
}

func TestSendExpertApplicationTemplate(t *testing.T) {
	primary := &fakeTransport{name: ServiceResend}
	direct := &fakeTransport{name: ServiceSMTP}
	svc := newTestService(primary, direct)

	res := svc.SendExpertApplication(context.Background(), "ada@example.com", "Ada")
	assert.Equal(t, ServiceResend, res.Service)
	require.Len(t, primary.sends, 1)
	assert.Contains(t, primary.sends[0].HTML, "Application received")
	assert.Contains(t, primary.sends[0].HTML, "Hi Ada,")
}

func TestIsRateLimited(t *testing.T) {
	assert.True(t, isRateLimited(fmt.Errorf("Rate Limit exceeded")))
	assert.True(t, isRateLimited(fmt.Errorf("monthly quota reached")))
	assert.True(t, isRateLimited(fmt.Errorf("daily limit hit")))
	assert.False(t, isRateLimited(fmt.Errorf("invalid recipient")))
	assert.False(t, isRateLimited(nil))
}

func TestHTMLToText(t *testing.T) {
	text := htmlToText("<html><body><h1>Hello</h1><p>First &amp; second.</p><p>Third<br>line</p></body></html>")
	assert.Contains(t, text, "Hello")
	assert.Contains(t, text, "First & second.")
	assert.Contains(t, text, "Third\nline")
	assert.NotContains(t, text, "<")
}
