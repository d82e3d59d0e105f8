package notify

import (
	"context"
	"fmt"

	"github.com/lc/myip/pkg/client"
)

// Slack posts Block Kit messages to an incoming webhook.
type Slack struct {
	webhook
}

// NewSlack returns a Slack notifier. A nil hc uses a default HTTP client.
func NewSlack(webhookURL string, hc client.Doer) *Slack {
	return &Slack{webhook: newWebhook(webhookURL, hc)}
}

// Name implements Notifier.
func (*Slack) Name() string { return "slack" }

// Notify implements Notifier.
func (s *Slack) Notify(ctx context.Context, ch Change) error {
	return s.post(ctx, slackPayload(ch))
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type slackBlock struct {
	Type     string      `json:"type"`
	Text     *slackText  `json:"text,omitempty"`
	Fields   []slackText `json:"fields,omitempty"`
	Elements []slackText `json:"elements,omitempty"`
}

type slackMessage struct {
	Text   string       `json:"text"`
	Blocks []slackBlock `json:"blocks"`
}

func slackPayload(ch Change) slackMessage {
	rec := ch.Current
	return slackMessage{
		Text: title,
		Blocks: []slackBlock{
			{Type: "header", Text: &slackText{Type: "plain_text", Text: title}},
			{Type: "section", Fields: []slackText{
				{Type: "mrkdwn", Text: fmt.Sprintf("*Old IP:*\n`%s`", ch.Previous)},
				{Type: "mrkdwn", Text: fmt.Sprintf("*New IP:*\n`%s`", rec.IP)},
				{Type: "mrkdwn", Text: fmt.Sprintf("*Location:*\n%s", rec.Location.Place())},
				{Type: "mrkdwn", Text: fmt.Sprintf("*ISP:*\n%s", rec.Network.ISP)},
			}},
			{Type: "context", Elements: []slackText{
				{Type: "mrkdwn", Text: fmt.Sprintf("%s | %s", footer, ch.DetectedAt.Format("2006-01-02 15:04:05"))},
			}},
		},
	}
}
