package component

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rovshanmuradov/perpshield/internal/ui/style"
)

// PnLGauge renders a position's PnL percentage as a bar scaled to the alert
// thresholds: a full bar means the profit target or loss limit was reached.
type PnLGauge struct {
	value     float64 // PnL percentage
	width     int
	showValue bool

	profitThreshold float64
	lossThreshold   float64
}

// NewPnLGauge creates a new PnL gauge component
func NewPnLGauge(width int) *PnLGauge {
	return &PnLGauge{
		width:           width,
		showValue:       true,
		profitThreshold: 50,
		lossThreshold:   -50,
	}
}

// SetValue sets the PnL percentage value
func (p *PnLGauge) SetValue(value float64) *PnLGauge {
	p.value = value
	return p
}

// SetWidth sets the gauge width
func (p *PnLGauge) SetWidth(width int) *PnLGauge {
	p.width = width
	return p
}

// SetShowValue enables/disables value display
func (p *PnLGauge) SetShowValue(show bool) *PnLGauge {
	p.showValue = show
	return p
}

// SetThresholds sets the profit and loss percentages that fill the gauge.
// Non-positive values keep the previous setting.
func (p *PnLGauge) SetThresholds(profitThreshold, lossThreshold float64) *PnLGauge {
	if profitThreshold > 0 {
		p.profitThreshold = profitThreshold
	}
	if lossThreshold > 0 {
		p.lossThreshold = -lossThreshold
	}
	return p
}

// View renders the PnL gauge
func (p *PnLGauge) View() string {
	color := p.GetColor()
	styledGauge := lipgloss.NewStyle().Foreground(color).Render(p.generateGaugeBar())

	if !p.showValue {
		return styledGauge
	}

	prefix := ""
	if p.value > 0 {
		prefix = "+"
	} else if p.value < 0 {
		prefix = "-"
	}
	text := fmt.Sprintf("%s%.2f%% %s", prefix, math.Abs(p.value), p.GetArrow())

	return styledGauge + " " + lipgloss.NewStyle().Foreground(color).Bold(true).Render(text)
}

// fill returns the filled fraction of the gauge in [0, 1]
func (p *PnLGauge) fill() float64 {
	scale := p.profitThreshold
	if p.value < 0 {
		scale = -p.lossThreshold
	}
	if scale <= 0 {
		return 0
	}
	return math.Min(math.Abs(p.value)/scale, 1)
}

// generateGaugeBar creates the visual gauge representation
func (p *PnLGauge) generateGaugeBar() string {
	if p.width <= 0 {
		return ""
	}

	chars := []string{"▁", "▂", "▃", "▄", "▅", "▆", "▇", "█"}

	intensity := p.fill()
	charIndex := int(intensity * float64(len(chars)-1))

	filledWidth := int(intensity * float64(p.width))
	if filledWidth < 1 && p.value != 0 {
		filledWidth = 1
	}

	var result strings.Builder
	for i := 0; i < p.width; i++ {
		if i < filledWidth {
			result.WriteString(chars[charIndex])
		} else {
			result.WriteString("▁")
		}
	}

	return result.String()
}

// GetStatus returns a text status based on the current value
func (p *PnLGauge) GetStatus() string {
	switch {
	case p.value >= p.profitThreshold:
		return "Profit target reached"
	case p.value > 0:
		return "Profit"
	case p.value <= p.lossThreshold:
		return "Loss limit reached"
	case p.value < 0:
		return "Loss"
	default:
		return "Break even"
	}
}

// GetColor returns the current color based on the value
func (p *PnLGauge) GetColor() lipgloss.Color {
	palette := style.DefaultPalette()

	switch {
	case p.value > 0:
		return palette.Success
	case p.value <= p.lossThreshold:
		return palette.Error
	case p.value < 0:
		return palette.Warning
	default:
		return palette.TextMuted
	}
}

// GetArrow returns the appropriate arrow character for the current trend
func (p *PnLGauge) GetArrow() string {
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

// ViewCompact renders a compact version of the gauge
func (p *PnLGauge) ViewCompact() string {
	return lipgloss.NewStyle().
		Foreground(p.GetColor()).
		Bold(true).
		Render(fmt.Sprintf("%+.1f%% %s", p.value, p.GetArrow()))
}
