package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Styles are the lipgloss styles derived from a Theme.
type Styles struct {
	Panel    lipgloss.Style
	Title    lipgloss.Style
	Label    lipgloss.Style
	Value    lipgloss.Style
	Running  lipgloss.Style
	Paused   lipgloss.Style
	Failed   lipgloss.Style
	Graph    lipgloss.Style
	KeyHint  lipgloss.Style
	Subtle   lipgloss.Style
	Header   lipgloss.Style
	Cell     lipgloss.Style
	sparkHi  lipgloss.Style
	sparkMid lipgloss.Style
	sparkLo  lipgloss.Style
}

func NewStyles(t Theme) Styles {
	return Styles{
		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Border).
			Padding(1, 2),
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(t.Primary).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(t.Border),
		Label:    lipgloss.NewStyle().Foreground(t.Muted).Width(14),
		Value:    lipgloss.NewStyle().Foreground(t.Text),
		Running:  lipgloss.NewStyle().Bold(true).Foreground(t.Good),
		Paused:   lipgloss.NewStyle().Bold(true).Foreground(t.Warn),
		Failed:   lipgloss.NewStyle().Bold(true).Foreground(t.Bad),
		Graph:    lipgloss.NewStyle().Foreground(t.Accent).Padding(1, 0),
		KeyHint:  lipgloss.NewStyle().Foreground(t.Muted).Italic(true),
		Subtle:   lipgloss.NewStyle().Foreground(t.Muted),
		Header:   lipgloss.NewStyle().Bold(true).Foreground(t.Primary).PaddingRight(2),
		Cell:     lipgloss.NewStyle().Foreground(t.Text).PaddingRight(2),
		sparkHi:  lipgloss.NewStyle().Foreground(t.Bad),
		sparkMid: lipgloss.NewStyle().Foreground(t.Warn),
		sparkLo:  lipgloss.NewStyle().Foreground(t.Good),
	}
}

// ProgressBar renders a filled bar for fraction in [0, 1].
func (s Styles) ProgressBar(fraction float64, width int) string {
	filled := int(fraction * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return s.Running.Render(bar)
}

// Sparkline renders the last width values as block characters. High values
// are drawn in the warning colours since the watch panel uses it for tick
// durations.
func (s Styles) Sparkline(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return strings.Repeat("─", max(width, 0))
	}
	if len(values) > width {
		values = values[len(values)-width:]
	}

	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}
	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	span := hi - lo
	if span == 0 {
		span = 1
	}

	var b strings.Builder
	for _, v := range values {
		norm := (v - lo) / span
		idx := min(max(int(norm*float64(len(chars)-1)), 0), len(chars)-1)
		c := string(chars[idx])
		switch {
		case norm > 0.7:
			b.WriteString(s.sparkHi.Render(c))
		case norm > 0.3:
			b.WriteString(s.sparkMid.Render(c))
		default:
			b.WriteString(s.sparkLo.Render(c))
		}
	}
	return b.String()
}

func (s Styles) Separator(width int) string {
	mid := width / 2
	left := strings.Repeat("─", max(mid-3, 0))
	right := strings.Repeat("─", max(width-mid-3, 0))
	return s.Subtle.Render(left + " ◆ " + right)
}

// Row renders a label/value pair.
func (s Styles) Row(label, value string) string {
	return s.Label.Render(label) + s.Value.Render(value)
}

// Table renders rows as padded columns under a bold header.
func (s Styles) Table(header []string, rows [][]string) string {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i := 0; i < len(row) && i < len(widths); i++ {
			widths[i] = max(widths[i], lipgloss.Width(row[i]))
		}
	}

	var b strings.Builder
	for i, h := range header {
		b.WriteString(s.Header.Width(widths[i] + 2).Render(h))
	}
	b.WriteString("\n")
	for _, row := range rows {
		for i := 0; i < len(row) && i < len(widths); i++ {
			b.WriteString(s.Cell.Width(widths[i] + 2).Render(row[i]))
		}
		b.WriteString("\n")
	}
	return b.String()
}
