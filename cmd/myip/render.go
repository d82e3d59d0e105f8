package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/lc/myip/internal/dualstack"
	"github.com/lc/myip/internal/monitor"
	"github.com/lc/myip/internal/vpncheck"
	"github.com/lc/myip/pkg/api"
)

const poweredBy = "🦊 Powered by myip.foo"

var (
	bold    = color.New(color.Bold)
	good    = color.New(color.FgGreen, color.Bold)
	bad     = color.New(color.FgRed, color.Bold)
	warn    = color.New(color.FgYellow)
	faint   = color.New(color.FgHiBlack)
	heading = color.New(color.FgHiCyan, color.Bold)
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// fieldTable renders two-column name/value rows without borders.
func fieldTable(w io.Writer, rows [][]string) {
	table := tablewriter.NewWriter(w)
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetColumnSeparator("")
	table.SetTablePadding("  ")
	table.SetNoWhiteSpace(true)
	table.SetColumnColor(
		tablewriter.Colors{tablewriter.FgHiWhiteColor},
		tablewriter.Colors{tablewriter.FgGreenColor},
	)
	table.AppendBulk(rows)
	table.Render()
}

func renderRecord(w io.Writer, rec api.IPRecord) {
	heading.Fprintln(w, "🌐 IP Information:")
	fmt.Fprintln(w, "─────────────────────────────")
	bold.Fprintf(w, "IP Address: %s (%s)\n", rec.IP, rec.Type)
	if rec.Hostname != "" {
		fmt.Fprintf(w, "Hostname: %s\n", rec.Hostname)
	}
	if rec.ConnectionType != "" {
		fmt.Fprintf(w, "Connection: %s\n", connectionLabel(rec.ConnectionType))
	}

	heading.Fprintln(w, "\n📍 Location:")
	fieldTable(w, [][]string{
		{"Country", rec.Location.Country},
		{"City", rec.Location.City},
		{"Region", rec.Location.Region},
		{"Timezone", rec.Location.Timezone},
		{"Coordinates", fmt.Sprintf("%s, %s", rec.Location.Latitude, rec.Location.Longitude)},
	})

	heading.Fprintln(w, "\n🌐 Network:")
	fieldTable(w, [][]string{
		{"ISP", rec.Network.ISP},
		{"ASN", rec.Network.ASN.String()},
	})

	heading.Fprintln(w, "\n☁️  Cloudflare:")
	fieldTable(w, [][]string{
		{"Datacenter", rec.Cloudflare.Colo},
		{"Ray ID", rec.Cloudflare.Ray},
	})
}

func connectionLabel(c api.ConnectionType) string {
	switch c.Normalize() {
	case api.Residential:
		return "🏠 Residential"
	case api.VPN:
		return "🔒 VPN"
	case api.Datacenter:
		return "🖥️ Datacenter"
	case api.Tor:
		return "🧅 Tor"
	default:
		return "❓ Unknown"
	}
}

func verdictIcon(c api.ConnectionType) string {
	switch c.Normalize() {
	case api.Residential:
		return "✅"
	case api.Datacenter:
		return "⚠️ "
	case api.VPN:
		return "🔒"
	case api.Tor:
		return "🧅"
	default:
		return "❓"
	}
}

func renderConnection(w io.Writer, info api.ConnectionInfo) {
	heading.Fprintln(w, "🔍 Connection Analysis:")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "IP:              %s\n", orDefault(info.IP, "Unknown"))
	fmt.Fprintf(w, "Connection Type: %s\n", orDefault(string(info.ConnectionType), string(api.Unknown)))
	fmt.Fprintf(w, "Provider:        %s\n", orDefault(info.Provider, "Unknown"))
	fmt.Fprintf(w, "ASN:             %s\n", orDefault(info.ASN.String(), "Unknown"))
	fmt.Fprintln(w)

	c := info.ConnectionType
	line := fmt.Sprintf("%s %s", verdictIcon(c), c.Verdict())
	switch c.Normalize() {
	case api.Residential:
		good.Fprintln(w, line)
	case api.Unknown:
		warn.Fprintln(w, line)
	default:
		bad.Fprintln(w, line)
	}
}

func renderDualStack(w io.Writer, pair dualstack.AddressPair, info *api.IPRecord) {
	fmt.Fprintln(w, "🔍 Checking dual-stack connectivity...")
	fmt.Fprintln(w)

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Family", "Address", "Time"})
	table.SetHeaderColor(
		tablewriter.Colors{tablewriter.Bold, tablewriter.FgHiCyanColor},
		tablewriter.Colors{tablewriter.Bold, tablewriter.FgHiCyanColor},
		tablewriter.Colors{tablewriter.Bold, tablewriter.FgHiCyanColor},
	)
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	for _, l := range []dualstack.Lookup{pair.IPv4, pair.IPv6} {
		addr := "❌ No " + l.Family.String() + " connectivity"
		colors := tablewriter.Colors{tablewriter.FgRedColor}
		if l.OK() {
			addr = "✅ " + l.Address
			colors = tablewriter.Colors{tablewriter.FgGreenColor}
		}
		table.Rich(
			[]string{"📡 " + l.Family.String(), addr, l.Elapsed.Round(time.Millisecond).String()},
			[]tablewriter.Colors{{tablewriter.Bold}, colors, {tablewriter.FgHiBlackColor}},
		)
	}
	table.Render()

	if info != nil {
		fmt.Fprintln(w)
		heading.Fprintln(w, "📊 Full connection info:")
		rows := [][]string{
			{"IP", info.IP},
			{"Type", info.Type},
			{"Location", info.Location.Place()},
			{"ISP", info.Network.ISP},
		}
		if info.ConnectionType != "" {
			rows = append(rows, []string{"Connection", connectionLabel(info.ConnectionType)})
		}
		fieldTable(w, rows)
	}

	fmt.Fprintln(w)
	faint.Fprintln(w, poweredBy)
}

func renderVPNCheck(w io.Writer, res vpncheck.Result) {
	rec := res.Record
	if res.Connected {
		good.Fprintf(w, "✅ VPN connected to %s\n", res.Expected)
		fmt.Fprintf(w, "   IP: %s\n", rec.IP)
		fmt.Fprintf(w, "   Location: %s\n", rec.Location.Place())
		fmt.Fprintf(w, "   ISP: %s\n", rec.Network.ISP)
	} else {
		bad.Fprintf(w, "❌ VPN not connected to %s\n", res.Expected)
		fmt.Fprintf(w, "   Current location: %s\n", rec.Location.Place())
		fmt.Fprintf(w, "   IP: %s\n", rec.IP)
	}
	if res.Local != nil {
		agree := "agrees"
		if !res.Local.Agrees {
			agree = "disagrees"
		}
		faint.Fprintf(w, "   Local GeoIP: %s (%s)\n", res.Local.Country, agree)
	}
}

func renderReport(w io.Writer, rep monitor.Report, err error) {
	fmt.Fprintf(w, "🔍 Checking IP address... [%s]\n", rep.CheckedAt.Format("15:04:05"))
	if err != nil {
		bad.Fprintf(w, "❌ Failed to fetch IP: %v\n", err)
		return
	}

	cur := rep.Current
	switch rep.Status {
	case monitor.StatusInitial:
		fmt.Fprintf(w, "📝 Initial IP recorded: %s\n", cur.IP)
	case monitor.StatusUnchanged:
		good.Fprintf(w, "✅ IP unchanged: %s\n", cur.IP)
	case monitor.StatusChanged:
		warn.Fprintf(w, "⚠️  IP changed: %s → %s\n", rep.Previous, cur.IP)
		fmt.Fprintf(w, "   Location: %s\n", cur.Location.Place())
		fmt.Fprintf(w, "   ISP: %s\n", cur.Network.ISP)
		for _, o := range rep.Alerts {
			if o.Err != nil {
				bad.Fprintf(w, "❌ %s alert failed: %v\n", titleCase(o.Channel), o.Err)
				continue
			}
			good.Fprintf(w, "✅ %s alert sent\n", titleCase(o.Channel))
		}
	}
	if rep.CacheErr != nil {
		warn.Fprintf(w, "⚠️  Could not save cache: %v\n", rep.CacheErr)
	}
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// reportJSON is the --json form of a monitor report.
type reportJSON struct {
	RunID     string        `json:"run_id"`
	Status    string        `json:"status"`
	Previous  string        `json:"previous,omitempty"`
	Current   *api.IPRecord `json:"current,omitempty"`
	Alerts    []alertJSON   `json:"alerts,omitempty"`
	CheckedAt time.Time     `json:"checked_at"`
	Error     string        `json:"error,omitempty"`
}

type alertJSON struct {
	Channel string `json:"channel"`
	Error   string `json:"error,omitempty"`
}

func toReportJSON(rep monitor.Report, err error) reportJSON {
	out := reportJSON{
		RunID:     rep.RunID,
		Status:    rep.Status.String(),
		Previous:  rep.Previous,
		CheckedAt: rep.CheckedAt,
	}
	if err != nil {
		out.Status = "failed"
		out.Error = err.Error()
		return out
	}
	cur := rep.Current
	out.Current = &cur
	for _, o := range rep.Alerts {
		a := alertJSON{Channel: o.Channel}
		if o.Err != nil {
			a.Error = o.Err.Error()
		}
		out.Alerts = append(out.Alerts, a)
	}
	return out
}
