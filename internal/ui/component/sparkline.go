package component

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rovshanmuradov/margin-tracker/internal/ui/style"
)

var sparkChars = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Sparkline draws a series as a one-line block chart. Only the last width
// points are shown.
type Sparkline struct {
	data     []float64
	width    int
	style    lipgloss.Style
	showText bool
}

// NewSparkline creates a new sparkline component
func NewSparkline(width int) *Sparkline {
	return &Sparkline{
		width: width,
		style: lipgloss.NewStyle(),
	}
}

// SetData replaces the series.
func (s *Sparkline) SetData(data []float64) *Sparkline {
	s.data = append(s.data[:0], data...)
	return s
}

// SetWidth sets the width of the sparkline
func (s *Sparkline) SetWidth(width int) *Sparkline {
	s.width = width
	return s
}

// ShowText appends the trend arrow after the chart.
func (s *Sparkline) ShowText(show bool) *Sparkline {
	s.showText = show
	return s
}

func (s *Sparkline) visible() []float64 {
	if s.width > 0 && len(s.data) > s.width {
		return s.data[len(s.data)-s.width:]
	}
	return s.data
}

// Blocks renders the chart characters without styling.
func (s *Sparkline) Blocks() string {
	data := s.visible()
	if len(data) == 0 {
		return strings.Repeat("▁", s.width)
	}

	lo, hi := data[0], data[0]
	for _, v := range data {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}

	var sb strings.Builder
	for _, v := range data {
		idx := len(sparkChars) / 2
		if hi > lo {
			idx = int((v - lo) / (hi - lo) * float64(len(sparkChars)-1))
		}
		sb.WriteRune(sparkChars[idx])
	}
	for i := len(data); i < s.width; i++ {
		sb.WriteRune(' ')
	}
	return sb.String()
}

// Trend compares the last point with the first.
func (s *Sparkline) Trend() string {
	data := s.visible()
	if len(data) < 2 {
		return "→"
	}
	switch first, last := data[0], data[len(data)-1]; {
	case last > first:
		return "↗"
	case last < first:
		return "↘"
	default:
		return "→"
	}
}

// View renders the sparkline colored by the sign of the last point.
func (s *Sparkline) View() string {
	palette := style.DefaultPalette()
	var last float64
	if len(s.data) > 0 {
		last = s.data[len(s.data)-1]
	}

	out := s.style.Foreground(palette.PnLColor(last)).Render(s.Blocks())
	if s.showText {
		out += " " + s.Trend()
	}
	return out
}
