package component

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rovshanmuradov/margin-tracker/internal/ui/style"
)

// PnLGauge renders an ROE percentage as a bar centred on zero: losses grow
// to the left, profits to the right.
type PnLGauge struct {
	value    float64 // ROE percent
	width    int
	maxScale float64 // |value| that fills one half of the bar

	// Thresholds for the "strong" arrows
	profitThreshold float64
	lossThreshold   float64
}

// NewPnLGauge creates a new PnL gauge component
func NewPnLGauge(width int) *PnLGauge {
	return &PnLGauge{
		width:           width,
		maxScale:        100,
		profitThreshold: 50,
		lossThreshold:   -50,
	}
}

// SetValue sets the ROE percentage value
func (p *PnLGauge) SetValue(value float64) *PnLGauge {
	p.value = value
	return p
}

// SetWidth sets the gauge width
func (p *PnLGauge) SetWidth(width int) *PnLGauge {
	p.width = width
	return p
}

// SetScale sets the percentage that fills half of the bar. A value of 100
// means full liquidation of an isolated margin reaches the left edge.
func (p *PnLGauge) SetScale(maxScale float64) *PnLGauge {
	if maxScale > 0 {
		p.maxScale = maxScale
	}
	return p
}

// Color returns the current color based on the value
func (p *PnLGauge) Color() lipgloss.Color {
	return style.DefaultPalette().PnLColor(p.value)
}

// Arrow returns the trend arrow for the current value
func (p *PnLGauge) Arrow() string {
	switch {
	case p.value >= p.profitThreshold:
		return "↗"
	case p.value <= p.lossThreshold:
		return "↘"
	case p.value > 0:
		return "↑"
	case p.value < 0:
		return "↓"
	default:
		return "→"
	}
}

// Status returns a text status based on the current value
func (p *PnLGauge) Status() string {
	switch {
	case p.value >= p.profitThreshold:
		return "Strong Profit"
	case p.value > 0:
		return "Profit"
	case p.value <= p.lossThreshold:
		return "Strong Loss"
	case p.value < 0:
		return "Loss"
	default:
		return "Break Even"
	}
}

// Bar returns the uncolored bar, exposed for tests.
func (p *PnLGauge) Bar() string {
	if p.width < 3 {
		return ""
	}
	half := (p.width - 1) / 2
	filled := int(math.Round(math.Min(math.Abs(p.value)/p.maxScale, 1) * float64(half)))
	if filled == 0 && p.value != 0 {
		filled = 1
	}

	left := strings.Repeat("·", half)
	right := strings.Repeat("·", half)
	if p.value < 0 {
		left = strings.Repeat("·", half-filled) + strings.Repeat("█", filled)
	} else if p.value > 0 {
		right = strings.Repeat("█", filled) + strings.Repeat("·", half-filled)
	}
	return left + "│" + right
}

// View renders the PnL gauge
func (p *PnLGauge) View() string {
	color := p.Color()
	bar := lipgloss.NewStyle().Foreground(color).Render(p.Bar())
	text := lipgloss.NewStyle().Foreground(color).Bold(true).
		Render(fmt.Sprintf("%+.2f%% %s", p.value, p.Arrow()))
	return bar + " " + text
}

// ViewDetailed renders the gauge with its status text underneath
func (p *PnLGauge) ViewDetailed() string {
	status := lipgloss.NewStyle().Foreground(p.Color()).Render(p.Status())
	return p.View() + "\n" + status
}
