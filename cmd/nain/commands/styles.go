package commands

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/teslashibe/go-nain/pkg/detection"
	"github.com/teslashibe/go-nain/pkg/geo"
	"github.com/teslashibe/go-nain/pkg/routing"
)

var (
	primary = lipgloss.Color("#00ff9f")
	dim     = lipgloss.Color("#6e7681")
	warn    = lipgloss.Color("#ffb454")

	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(primary)
	labelStyle = lipgloss.NewStyle().Foreground(dim)
	indexStyle = lipgloss.NewStyle().Foreground(primary).Width(4).Align(lipgloss.Right)
	warnStyle  = lipgloss.NewStyle().Bold(true).Foreground(warn)
	boxStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primary).
			Padding(0, 1)
)

// renderRoute formats a routing result as a numbered step list.
func renderRoute(res *routing.Result) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(res.DestinationName))
	b.WriteString("\n")
	b.WriteString(labelStyle.Render(fmt.Sprintf("%s, about %s, %d steps",
		geo.FormatDistance(res.Route.TotalDistance),
		geo.FormatDuration(res.Route.TotalDuration),
		res.Route.Len())))
	b.WriteString("\n\n")

	for i, st := range res.Route.Steps {
		line := fmt.Sprintf("%s  %s", indexStyle.Render(fmt.Sprintf("%d.", i+1)), st.Instruction)
		if st.DistanceMeters > 0 {
			line += labelStyle.Render("  " + geo.FormatDistance(st.DistanceMeters))
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	if res.Insights != "" {
		b.WriteString("\n")
		b.WriteString(labelStyle.Render(res.Insights))
		b.WriteString("\n")
	}
	return boxStyle.Render(strings.TrimRight(b.String(), "\n"))
}

// renderDetections lists detections and marks the ones kept as obstacles.
func renderDetections(dets []detection.Detection, filter *detection.Filter) string {
	if len(dets) == 0 {
		return labelStyle.Render("no detections")
	}
	var b strings.Builder
	for _, d := range dets {
		name := d.ClassName
		if filter.Allows(d.ClassName) && d.Qualifies() {
			name = warnStyle.Render(name)
		}
		fmt.Fprintf(&b, "%s %s\n", name, labelStyle.Render(fmt.Sprintf("%.0f%%  %.0fx%.0f",
			d.Confidence*100, d.Box.W, d.Box.H)))
	}
	return strings.TrimRight(b.String(), "\n")
}
