// Package mail delivers transactional email over two transports: the Resend
// API as the primary route and a plain SMTP relay as the fallback. Admin
// notifications skip the API and go straight to the relay.
package mail

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/finsight/finsight/internal/logging"
)

// Message is one outbound email.
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// Category selects the delivery route for a message.
type Category string

const (
	CategoryWelcome           Category = "welcome-general"
	CategoryExpertApplication Category = "expert-application-pending"
	CategoryAdminNotification Category = "admin-notification"
)

// Service labels reported in delivery results.
const (
	ServiceResend       = "resend"
	ServiceSMTP         = "smtp"
	ServiceSMTPFallback = "smtp-fallback"
	ServiceFailed       = "failed"
)

// Transport delivers a single message over one channel.
type Transport interface {
	Send(ctx context.Context, msg Message) error
	Name() string
}

// Result reports which transport delivered a message, or the combined error
// when every attempt failed.
type Result struct {
	Service string
	Err     error
}

// Delivered reports whether any transport accepted the message.
func (r Result) Delivered() bool {
	return r.Service != ServiceFailed
}

// Service routes messages to the right transport per category and handles
// primary-to-fallback failover.
type Service struct {
	primary Transport // Resend; nil when no API key is configured
	direct  Transport // SMTP relay
	log     *logging.Logger

	fromName string
	appURL   string
}

// NewService builds a delivery service. primary may be nil; every message
// then rides the SMTP relay.
func NewService(primary, direct Transport, fromName, appURL string, log *logging.Logger) *Service {
	return &Service{
		primary:  primary,
		direct:   direct,
		log:      log.Sub("mail"),
		fromName: fromName,
		appURL:   appURL,
	}
}

// Send delivers msg via the route for its category. The error inside the
// Result is informational; delivery problems never panic or propagate as a
// hard failure to callers.
func (s *Service) Send(ctx context.Context, category Category, msg Message) Result {
	if msg.Text == "" {
		msg.Text = htmlToText(msg.HTML)
	}

	switch category {
	case CategoryWelcome, CategoryExpertApplication:
		return s.sendWithFallback(ctx, category, msg)
	default:
		// Admin notifications and anything unrecognized go straight to the relay.
		return s.sendDirect(ctx, category, msg)
	}
}

func (s *Service) sendWithFallback(ctx context.Context, category Category, msg Message) Result {
	primaryErr := fmt.Errorf("resend transport not configured")
	if s.primary != nil {
		primaryErr = s.primary.Send(ctx, msg)
		if primaryErr == nil {
			s.log.Info().Str("category", string(category)).Str("to", msg.To).
				Str("service", ServiceResend).Msg("email delivered")
			return Result{Service: ServiceResend}
		}
	}

	if isRateLimited(primaryErr) {
		s.log.Warn().Err(primaryErr).Str("category", string(category)).
			Msg("primary transport rate limited, using relay")
	} else {
		s.log.Warn().Err(primaryErr).Str("category", string(category)).
			Msg("primary transport failed, using relay")
	}

	if err := s.direct.Send(ctx, msg); err != nil {
		combined := fmt.Errorf("resend: %v; smtp: %v", primaryErr, err)
		s.log.Error().Err(combined).Str("category", string(category)).
			Str("to", msg.To).Msg("email delivery failed on both transports")
		return Result{Service: ServiceFailed, Err: combined}
	}

	s.log.Info().Str("category", string(category)).Str("to", msg.To).
		Str("service", ServiceSMTPFallback).Msg("email delivered")
	return Result{Service: ServiceSMTPFallback}
}

func (s *Service) sendDirect(ctx context.Context, category Category, msg Message) Result {
	if err := s.direct.Send(ctx, msg); err != nil {
		s.log.Error().Err(err).Str("category", string(category)).
			Str("to", msg.To).Msg("email delivery failed")
		return Result{Service: ServiceFailed, Err: err}
	}
	s.log.Info().Str("category", string(category)).Str("to", msg.To).
		Str("service", ServiceSMTP).Msg("email delivered")
	return Result{Service: ServiceSMTP}
}

// isRateLimited spots quota errors from the primary provider. The label only
// changes what gets logged; fallback happens on every primary failure.
func isRateLimited(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "quota") ||
		strings.Contains(msg, "daily limit")
}

var (
	htmlTagRe   = regexp.MustCompile(`(?s)<[^>]*>`)
	htmlSpaceRe = regexp.MustCompile(`[ \t]{2,}`)
)

// htmlToText derives a plain-text alternative from an HTML body.
func htmlToText(html string) string {
	text := strings.NewReplacer(
		"</p>", "\n\n",
		"<br>", "\n",
		"<br/>", "\n",
		"<br />", "\n",
	).Replace(html)
	text = htmlTagRe.ReplaceAllString(text, "")
	text = strings.NewReplacer(
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&#39;", "'",
		"&nbsp;", " ",
	).Replace(text)
	text = htmlSpaceRe.ReplaceAllString(text, " ")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
