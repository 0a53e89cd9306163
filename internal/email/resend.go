package email

import (
	"fmt"
	"html"

	"github.com/resend/resend-go/v3"
)

// Resend sends run mail through the Resend API.
type Resend struct {
	client *resend.Client
	from   string
}

// NewResend returns a Resend sender. from must be a verified sender address.
func NewResend(apiKey, from string) *Resend {
	return &Resend{client: resend.NewClient(apiKey), from: from}
}

func (r *Resend) Send(to string, tmpl Template, data RunSummaryData) error {
	subject, body, err := render(tmpl, data)
	if err != nil {
		return err
	}
	_, err = r.client.Emails.Send(&resend.SendEmailRequest{
		From:    r.from,
		To:      []string{to},
		Subject: subject,
		Html:    body,
	})
	if err != nil {
		return fmt.Errorf("resend: send to %s: %w", to, err)
	}
	return nil
}

func render(tmpl Template, data RunSummaryData) (subject, body string, err error) {
	switch tmpl {
	case RunPassed:
		return fmt.Sprintf("[PASS] %s: %s", data.title(), data.Counts), renderRunHTML(data, "#1a7f37"), nil
	case RunFailed:
		return fmt.Sprintf("[FAIL] %s: %s", data.title(), data.Counts), renderRunHTML(data, "#cf222e"), nil
	default:
		return "", "", fmt.Errorf("unknown mail template %q", tmpl)
	}
}

func renderRunHTML(data RunSummaryData, accent string) string {
	link := ""
	if data.ReportURL != "" {
		link = fmt.Sprintf(`<div style="text-align: center; margin: 30px 0;">
            <a href="%s" style="background: %s; color: white; padding: 14px 30px; text-decoration: none; border-radius: 6px; font-weight: 600; display: inline-block;">Open Report</a>
        </div>`, html.EscapeString(data.ReportURL), accent)
	}
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>%s</title>
</head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
    <div style="background: %s; padding: 30px; border-radius: 10px 10px 0 0;">
        <h1 style="color: white; margin: 0; font-size: 24px;">%s</h1>
        <p style="color: white; margin: 0;">%s</p>
    </div>
    <div style="background: #ffffff; padding: 30px; border: 1px solid #e0e0e0; border-top: none; border-radius: 0 0 10px 10px;">
        %s
        %s
        <hr style="border: none; border-top: 1px solid #e0e0e0; margin: 20px 0;">
        <p style="color: #999; font-size: 12px;">Run %s</p>
    </div>
</body>
</html>`,
		html.EscapeString(data.title()),
		accent,
		html.EscapeString(data.title()),
		html.EscapeString(data.Counts),
		data.BodyHTML,
		link,
		html.EscapeString(data.RunID),
	)
}
