package mail

import (
	"context"
	"fmt"
	"html/template"
	"strings"
)

var welcomeTmpl = template.Must(template.New("welcome").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #1a1a2e; max-width: 600px; margin: 0 auto; padding: 24px;">
  <h1 style="color: #0f3460;">Welcome to Finsight, {{.Name}}!</h1>
  <p>Your account is ready. You can now chat with our financial assistant about live stock quotes, crypto prices, forex rates, and market news.</p>
  <p>A few things you can try right away:</p>
  <ul>
    <li>Ask for the current price of any stock or cryptocurrency</li>
    <li>Get a quick market overview with sentiment</li>
    <li>Follow the latest market news for your watchlist</li>
  </ul>
  <p><a href="{{.AppURL}}" style="background: #0f3460; color: #ffffff; padding: 10px 20px; text-decoration: none; border-radius: 4px;">Open Finsight</a></p>
  <p style="color: #666; font-size: 12px;">Finsight provides general market information, not investment advice.</p>
</body>
</html>`))

var expertApplicationTmpl = template.Must(template.New("expertApplication").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #1a1a2e; max-width: 600px; margin: 0 auto; padding: 24px;">
  <h1 style="color: #0f3460;">Application received</h1>
  <p>Hi {{.Name}},</p>
  <p>Thanks for applying to become a verified expert on Finsight. Our team reviews every application by hand, which usually takes 2-3 business days.</p>
  <p>We'll email you as soon as the review is complete. You don't need to do anything in the meantime.</p>
  <p><a href="{{.AppURL}}">Back to Finsight</a></p>
</body>
</html>`))

var adminNotificationTmpl = template.Must(template.New("adminNotification").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #1a1a2e; max-width: 600px; margin: 0 auto; padding: 24px;">
  <h2 style="color: #0f3460;">{{.Subject}}</h2>
  <pre style="background: #f4f4f4; padding: 12px; border-radius: 4px; white-space: pre-wrap;">{{.Body}}</pre>
</body>
</html>`))

type templateData struct {
	Name    string
	AppURL  string
	Subject string
	Body    string
}

func render(tmpl *template.Template, data templateData) (string, error) {
	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("render %s template: %w", tmpl.Name(), err)
	}
	return b.String(), nil
}

// SendWelcome delivers the signup welcome email.
func (s *Service) SendWelcome(ctx context.Context, to, name string) Result {
	html, err := render(welcomeTmpl, templateData{Name: name, AppURL: s.appURL})
	if err != nil {
		return Result{Service: ServiceFailed, Err: err}
	}
	return s.Send(ctx, CategoryWelcome, Message{
		To:      to,
		Subject: fmt.Sprintf("Welcome to %s!", s.fromName),
		HTML:    html,
	})
}

// SendExpertApplication confirms that an expert application is under review.
func (s *Service) SendExpertApplication(ctx context.Context, to, name string) Result {
	html, err := render(expertApplicationTmpl, templateData{Name: name, AppURL: s.appURL})
	if err != nil {
		return Result{Service: ServiceFailed, Err: err}
	}
	return s.Send(ctx, CategoryExpertApplication, Message{
		To:      to,
		Subject: "Your expert application is under review",
		HTML:    html,
	})
}

// SendAdminNotification delivers an operational notice to an admin mailbox.
func (s *Service) SendAdminNotification(ctx context.Context, to, subject, body string) Result {
	html, err := render(adminNotificationTmpl, templateData{Subject: subject, Body: body})
	if err != nil {
		return Result{Service: ServiceFailed, Err: err}
	}
	return s.Send(ctx, CategoryAdminNotification, Message{
		To:      to,
		Subject: subject,
		HTML:    html,
	})
}
