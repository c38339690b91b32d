package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/aretw0/relay/pkg/ports"
)

var (
	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Width(10)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Bold(true)

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("42")).
		Bold(true)

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	failStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("99")).
			Padding(0, 1)
)

// Badge labels a run as ok, degraded or failed.
func Badge(rec ports.RunRecord, degraded bool) string {
	switch {
	case !rec.Success:
		return failStyle.Render("FAILED")
	case degraded:
		return warnStyle.Render("DEGRADED")
	default:
		return okStyle.Render("OK")
	}
}

// Summary renders a boxed overview of a finished run.
func Summary(rec ports.RunRecord, degraded bool) string {
	rows := [][2]string{
		{"run", rec.ID},
		{"system", rec.System},
		{"result", Badge(rec, degraded)},
		{"status", rec.Diagnostic},
		{"path", strings.Join(rec.Path, " → ")},
		{"steps", fmt.Sprintf("%d", rec.Steps)},
		{"duration", rec.Duration.Round(time.Millisecond).String()},
	}
	if rec.Reason != "" {
		rows = append(rows, [2]string{"reason", failStyle.Render(rec.Reason)})
	}

	lines := make([]string, 0, len(rows))
	for _, r := range rows {
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(r[0]), valueStyle.Render(r[1])))
	}
	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// HistoryTable renders one line per record, most recent first.
func HistoryTable(recs []ports.RunRecord) string {
	if len(recs) == 0 {
		return labelStyle.UnsetWidth().Render("no runs recorded")
	}
	var b strings.Builder
	for _, r := range recs {
		badge := okStyle.Render("ok  ")
		if !r.Success {
			badge = failStyle.Render("fail")
		}
		fmt.Fprintf(&b, "%s  %s  %-6s  %s\n",
			labelStyle.UnsetWidth().Render(r.StartedAt.Local().Format("2006-01-02 15:04")),
			badge,
			r.System,
			valueStyle.Render(r.Task),
		)
		if r.Summary != "" {
			fmt.Fprintf(&b, "    %s\n", r.Summary)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
