package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/oloid-qa/e2e/internal/email"
	"github.com/oloid-qa/e2e/internal/report"
)

// Email mails the run summary to a fixed recipient list.
type Email struct {
	svc email.Sender
	to  []string
}

// NewEmail returns an Email notifier.
func NewEmail(svc email.Sender, to []string) *Email {
	return &Email{svc: svc, to: to}
}

func (e *Email) Name() string { return "email" }

// Notify sends one mail per recipient.
func (e *Email) Notify(ctx context.Context, msg Message) error {
	tmpl := email.RunPassed
	if !msg.Summary.OK() {
		tmpl = email.RunFailed
	}
	data := SummaryData(msg)

	var errList []error
	for _, to := range e.to {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := e.svc.Send(to, tmpl, data); err != nil {
			errList = append(errList, fmt.Errorf("send to %s: %w", to, err))
		}
	}
	return errors.Join(errList...)
}

// SummaryData converts a run message into email template data.
func SummaryData(msg Message) email.RunSummaryData {
	return email.RunSummaryData{
		Title:     msg.Summary.Meta.Title,
		RunID:     msg.Summary.RunID,
		Counts:    report.CountsLine(msg.Summary),
		BodyHTML:  string(report.RenderMarkdown([]byte(report.Markdown(msg.Summary)))),
		ReportURL: msg.ReportURL,
	}
}
