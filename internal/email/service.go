// Package email delivers run reports by mail.
package email

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"github.com/oloid-qa/e2e/internal/obs"
)

// Sender mails one rendered run summary.
type Sender interface {
	Send(to string, tmpl Template, data RunSummaryData) error
}

// Message is a mail the Outbox accepted.
type Message struct {
	To       string         `json:"to"`
	Template Template       `json:"template"`
	Data     RunSummaryData `json:"data"`
}

// Outbox is the Sender used when no mail provider is configured. It keeps
// messages in memory and writes each one as JSON into dir.
type Outbox struct {
	dir string

	mu   sync.Mutex
	sent []Message
}

// OutboxFromEnv returns an Outbox writing into E2E_MAIL_OUTBOX_DIR, or a
// directory under the system temp dir.
func OutboxFromEnv() *Outbox {
	dir := os.Getenv("E2E_MAIL_OUTBOX_DIR")
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "e2e-mail-outbox")
	}
	return NewOutbox(dir)
}

// NewOutbox returns an Outbox writing into dir. An empty dir keeps messages
// in memory only.
func NewOutbox(dir string) *Outbox {
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			obs.Pkg("email").Warn("outbox dir unavailable, keeping mail in memory", "dir", dir, "error", err)
			dir = ""
		}
	}
	return &Outbox{dir: dir}
}

func (o *Outbox) Send(to string, tmpl Template, data RunSummaryData) error {
	msg := Message{To: to, Template: tmpl, Data: data}

	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = append(o.sent, msg)
	obs.Pkg("email").Info("mail kept in outbox", "to", to, "template", tmpl, "run_id", data.RunID, "counts", data.Counts)

	if o.dir == "" {
		return nil
	}
	payload, err := json.MarshalIndent(msg, "", "  ")
	if err != nil {
		return fmt.Errorf("encode outbox message: %w", err)
	}
	name := fmt.Sprintf("%s-%03d-%s-%s.json", fileSafe(data.RunID), len(o.sent), tmpl, fileSafe(to))
	if err := os.WriteFile(filepath.Join(o.dir, name), payload, 0o644); err != nil {
		return fmt.Errorf("write outbox message: %w", err)
	}
	return nil
}

// Sent returns a copy of every message accepted so far.
func (o *Outbox) Sent() []Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]Message(nil), o.sent...)
}

// Last returns the newest message.
func (o *Outbox) Last() (Message, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.sent) == 0 {
		return Message{}, false
	}
	return o.sent[len(o.sent)-1], true
}

// Reset forgets the in-memory messages. Files already written stay.
func (o *Outbox) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = nil
}

var unsafeFileChars = regexp.MustCompile(`[^a-zA-Z0-9._@-]+`)

func fileSafe(s string) string {
	if s == "" {
		return "none"
	}
	return unsafeFileChars.ReplaceAllString(s, "_")
}
