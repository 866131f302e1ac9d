// Package report renders the result of a bake for the terminal.
package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/zurustar/midicurve/pkg/bake"
	"github.com/zurustar/midicurve/pkg/nameindex"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7dcfff"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#888"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#e0af68"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#9ece6a"))
	boxStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#555")).
			Padding(0, 1)
)

// Render formats a bake and, when link is non-nil, its index outcome.
// Curves lists at most maxCurves rows; 0 lists none.
func Render(out bake.Outcome, link *nameindex.Outcome, maxCurves int) string {
	if !out.OK() {
		return boxStyle.Render(warnStyle.Render(out.Reason))
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(out.StatusLines[0]))
	b.WriteByte('\n')
	b.WriteString(out.StatusLines[1])

	if out.SMF != nil {
		b.WriteByte('\n')
		b.WriteString(dimStyle.Render(fmt.Sprintf("SMF format %d, %d tracks, length %s",
			out.SMF.Format, out.SMF.Tracks, out.SMF.Length)))
	}

	if maxCurves > 0 && out.Timelines.Len() > 0 {
		b.WriteString("\n\n")
		b.WriteString(curveTable(out, maxCurves))
	}

	if link != nil {
		b.WriteString("\n\n")
		b.WriteString(linkSummary(*link))
	}
	return boxStyle.Render(b.String())
}

func curveTable(out bake.Outcome, maxCurves int) string {
	names := out.Timelines.Names()
	width := 0
	for _, n := range names {
		if w := lipgloss.Width(out.Result.CurveName(n)); w > width {
			width = w
		}
	}
	nameCol := lipgloss.NewStyle().Width(width + 2)

	var rows []string
	for i, n := range names {
		if i == maxCurves {
			rows = append(rows, dimStyle.Render(fmt.Sprintf("... %d more", len(names)-maxCurves)))
			break
		}
		t, _ := out.Timelines.Get(n)
		last := t.Samples[len(t.Samples)-1]
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top,
			nameCol.Render(out.Result.CurveName(n)),
			dimStyle.Render(fmt.Sprintf("%d keys, last frame %g", t.Len(), last.Frame)),
		))
	}
	return strings.Join(rows, "\n")
}

func linkSummary(link nameindex.Outcome) string {
	if !link.OK() {
		return warnStyle.Render(link.Reason)
	}
	lines := []string{okStyle.Render(fmt.Sprintf("Index: %v (%d of %d matched)",
		link.Result.Indices, link.Result.Matched, len(link.Result.Indices)))}
	for _, w := range link.Result.Warnings {
		lines = append(lines, warnStyle.Render(w))
	}
	return strings.Join(lines, "\n")
}
