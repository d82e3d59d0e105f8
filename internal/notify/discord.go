package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/lc/myip/pkg/api"
	"github.com/lc/myip/pkg/client"
)

// discordOrange is 0xFF8040.
const discordOrange = 16744256

// Discord posts a single embed to a Discord webhook.
type Discord struct {
	webhook
}

// NewDiscord returns a Discord notifier. A nil hc uses a default HTTP client.
func NewDiscord(webhookURL string, hc client.Doer) *Discord {
	return &Discord{webhook: newWebhook(webhookURL, hc)}
}

// Name implements Notifier.
func (*Discord) Name() string { return "discord" }

// Notify implements Notifier.
func (d *Discord) Notify(ctx context.Context, ch Change) error {
	return d.post(ctx, discordPayload(ch))
}

type discordField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type discordFooter struct {
	Text string `json:"text"`
}

type discordEmbed struct {
	Title     string         `json:"title"`
	Color     int            `json:"color"`
	Fields    []discordField `json:"fields"`
	Footer    discordFooter  `json:"footer"`
	Timestamp string         `json:"timestamp"`
}

type discordMessage struct {
	Embeds []discordEmbed `json:"embeds"`
}

func discordPayload(ch Change) discordMessage {
	rec := ch.Current
	conn := string(rec.ConnectionType)
	if conn == "" {
		conn = string(api.Unknown)
	}

	embed := discordEmbed{
		Title: title,
		Color: discordOrange,
		Fields: []discordField{
			{Name: "Old IP", Value: fmt.Sprintf("`%s`", ch.Previous), Inline: true},
			{Name: "New IP", Value: fmt.Sprintf("`%s`", rec.IP), Inline: true},
			{Name: "Type", Value: rec.Type, Inline: true},
			{Name: "Location", Value: rec.Location.Place(), Inline: true},
			{Name: "ISP", Value: rec.Network.ISP, Inline: true},
			{Name: "Connection", Value: conn, Inline: true},
		},
		Footer:    discordFooter{Text: "🦊 Powered by myip.foo"},
		Timestamp: ch.DetectedAt.UTC().Format(time.RFC3339),
	}
	return discordMessage{Embeds: []discordEmbed{embed}}
}
