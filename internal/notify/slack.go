package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/slack-go/slack"

	"github.com/oloid-qa/e2e/internal/report"
)

// maxSlackFailures bounds the failures listed in one message.
const maxSlackFailures = 10

// Slack posts to an incoming webhook.
type Slack struct {
	webhookURL string
}

// NewSlack returns a Slack notifier for webhookURL.
func NewSlack(webhookURL string) *Slack {
	return &Slack{webhookURL: webhookURL}
}

func (s *Slack) Name() string { return "slack" }

// Notify posts the run summary.
func (s *Slack) Notify(ctx context.Context, msg Message) error {
	if err := slack.PostWebhookContext(ctx, s.webhookURL, SlackMessage(msg)); err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	return nil
}

// SlackMessage builds the webhook payload for msg.
func SlackMessage(msg Message) *slack.WebhookMessage {
	sum := msg.Summary
	title := sum.Meta.Title
	if title == "" {
		title = "Test Run Report"
	}
	color, verdict := "good", "passed"
	if !sum.OK() {
		color, verdict = "danger", "failed"
	}

	att := slack.Attachment{
		Color:     color,
		Fallback:  fmt.Sprintf("%s %s: %s", title, verdict, report.CountsLine(sum)),
		Title:     title,
		TitleLink: msg.ReportURL,
		Text:      failureLines(sum),
		Fields: []slack.AttachmentField{
			{Title: "Result", Value: report.CountsLine(sum), Short: true},
			{Title: "Run", Value: sum.RunID, Short: true},
		},
		MarkdownIn: []string{"text"},
	}
	if sum.Meta.Release != "" {
		att.Fields = append(att.Fields, slack.AttachmentField{Title: "Release", Value: sum.Meta.Release, Short: true})
	}

	return &slack.WebhookMessage{
		Text:        fmt.Sprintf("E2E run %s", verdict),
		Attachments: []slack.Attachment{att},
	}
}

func failureLines(sum *report.Summary) string {
	failures := sum.Failures()
	if len(failures) == 0 {
		return ""
	}
	var b strings.Builder
	for i, r := range failures {
		if i == maxSlackFailures {
			fmt.Fprintf(&b, "…and %d more", len(failures)-maxSlackFailures)
			break
		}
		fmt.Fprintf(&b, "• *%s* [%s]", r.Title(), r.Project)
		if r.ErrorKind != "" {
			fmt.Fprintf(&b, " _%s_", r.ErrorKind)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
