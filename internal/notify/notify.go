// Package notify delivers address-change alerts to chat webhooks.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/lc/myip/internal/log"
	"github.com/lc/myip/pkg/api"
	"github.com/lc/myip/pkg/client"
)

// DefaultTimeout bounds a single webhook delivery.
const DefaultTimeout = 10 * time.Second

const (
	title  = "🔔 IP Address Changed!"
	footer = "🦊 Detected by myip.foo"
)

// Change describes a detected address change.
type Change struct {
	Previous   string
	Current    api.IPRecord
	DetectedAt time.Time
}

// Notifier delivers a Change to one channel.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, ch Change) error
}

// Outcome is the delivery result for one channel.
type Outcome struct {
	Channel string
	Err     error
}

// Outcomes is the result of a Fanout.
type Outcomes []Outcome

// Sent counts the channels that accepted the alert.
func (o Outcomes) Sent() int {
	n := 0
	for _, out := range o {
		if out.Err == nil {
			n++
		}
	}
	return n
}

// Err combines the delivery errors, nil if every channel succeeded.
func (o Outcomes) Err() error {
	var errs error
	for _, out := range o {
		if out.Err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", out.Channel, out.Err))
		}
	}
	return errs
}

// Fanout sends ch to every notifier concurrently. A failing channel never
// stops the others. Outcomes are in the order of notifiers.
func Fanout(ctx context.Context, ch Change, notifiers ...Notifier) Outcomes {
	var (
		grp errgroup.Group
		out = make(Outcomes, len(notifiers))
	)
	for i, n := range notifiers {
		grp.Go(func() error {
			err := n.Notify(ctx, ch)
			out[i] = Outcome{Channel: n.Name(), Err: err}
			if err != nil {
				log.Warnf("notify: %s alert failed: %v", n.Name(), err)
			} else {
				log.Infof("notify: %s alert sent", n.Name())
			}
			return nil
		})
	}
	_ = grp.Wait()
	return out
}

// Configured returns a notifier per non-empty webhook URL.
func Configured(slackURL, discordURL string, hc client.Doer) []Notifier {
	var ns []Notifier
	if slackURL != "" {
		ns = append(ns, NewSlack(slackURL, hc))
	}
	if discordURL != "" {
		ns = append(ns, NewDiscord(discordURL, hc))
	}
	return ns
}

// webhook posts JSON payloads to a URL.
type webhook struct {
	url string
	hc  client.Doer
}

func newWebhook(url string, hc client.Doer) webhook {
	if hc == nil {
		hc = &http.Client{Timeout: DefaultTimeout}
	}
	return webhook{url: url, hc: hc}
}

func (w webhook) post(ctx context.Context, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &client.StatusError{Code: resp.StatusCode, Status: resp.Status}
	}
	return nil
}
