// Package notify announces the outcome of a run on Slack and by email.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sourcegraph/conc/pool"

	"github.com/oloid-qa/e2e/internal/config"
	"github.com/oloid-qa/e2e/internal/email"
	"github.com/oloid-qa/e2e/internal/obs"
	"github.com/oloid-qa/e2e/internal/report"
)

// Message is what every notifier receives at the end of a run.
type Message struct {
	Summary   *report.Summary
	ReportURL string // published HTML report, empty when reports stay local
}

// Notifier delivers a run message to one channel.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, msg Message) error
}

// FromConfig returns the notifiers cfg enables. Email without a Resend key
// goes to the local outbox so the wiring can be exercised locally.
func FromConfig(cfg *config.Config) []Notifier {
	var out []Notifier
	if cfg.SlackWebhookURL != "" {
		out = append(out, NewSlack(cfg.SlackWebhookURL))
	}
	if len(cfg.ReportEmailTo) > 0 {
		var svc email.Sender
		if cfg.ResendAPIKey != "" {
			svc = email.NewResend(cfg.ResendAPIKey, cfg.ReportEmailFrom)
		} else {
			svc = email.OutboxFromEnv()
		}
		out = append(out, NewEmail(svc, cfg.ReportEmailTo))
	}
	return out
}

// Dispatcher fans a message out to every notifier.
type Dispatcher struct {
	notifiers []Notifier
	onSuccess bool
	log       *slog.Logger
}

// NewDispatcher returns a Dispatcher. Passing runs are announced only when
// onSuccess is set.
func NewDispatcher(notifiers []Notifier, onSuccess bool) *Dispatcher {
	return &Dispatcher{notifiers: notifiers, onSuccess: onSuccess, log: obs.Pkg("notify")}
}

// Dispatch sends msg to all notifiers in parallel. A failing channel does
// not stop the others; all errors are joined.
func (d *Dispatcher) Dispatch(ctx context.Context, msg Message) error {
	if msg.Summary == nil {
		return fmt.Errorf("notify: empty summary")
	}
	if msg.Summary.OK() && !d.onSuccess {
		d.log.Debug("run passed, notifications skipped")
		return nil
	}

	p := pool.New().WithErrors().WithContext(ctx)
	for _, n := range d.notifiers {
		n := n
		p.Go(func(ctx context.Context) error {
			if err := n.Notify(ctx, msg); err != nil {
				d.log.Warn("notification_failed", "channel", n.Name(), "error", err)
				return fmt.Errorf("%s: %w", n.Name(), err)
			}
			d.log.Info("notification_sent", "channel", n.Name(), "run_id", msg.Summary.RunID)
			return nil
		})
	}
	return p.Wait()
}
