package component

import (
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/rovshanmuradov/perpshield/internal/ui/style"
)

// Sparkline represents a mini graph component for showing price trends
type Sparkline struct {
	data     []float64
	width    int
	color    lipgloss.Color
	showText bool
}

// NewSparkline creates a new sparkline component
func NewSparkline(width int) *Sparkline {
	return &Sparkline{
		data:  make([]float64, 0),
		width: width,
		color: style.DefaultPalette().Primary,
	}
}

// SetData sets the data points for the sparkline, keeping the newest width points
func (s *Sparkline) SetData(data []float64) *Sparkline {
	if len(data) > s.width && s.width > 0 {
		data = data[len(data)-s.width:]
	}
	s.data = make([]float64, len(data))
	copy(s.data, data)
	return s
}

// SetWidth sets the width of the sparkline
func (s *Sparkline) SetWidth(width int) *Sparkline {
	s.width = width
	if len(s.data) > width {
		s.data = s.data[len(s.data)-width:]
	}
	return s
}

// SetColor sets the color for the sparkline
func (s *Sparkline) SetColor(color lipgloss.Color) *Sparkline {
	s.color = color
	return s
}

// ShowText enables/disables the trend arrow after the sparkline
func (s *Sparkline) ShowText(show bool) *Sparkline {
	s.showText = show
	return s
}

// View renders the sparkline
func (s *Sparkline) View() string {
	palette := style.DefaultPalette()

	if len(s.data) == 0 {
		return lipgloss.NewStyle().Foreground(palette.TextMuted).Render(strings.Repeat("▁", s.width))
	}

	styledBlocks := lipgloss.NewStyle().Foreground(s.color).Render(s.generateSparkBlocks())
	if !s.showText {
		return styledBlocks
	}

	trend := "→"
	trendColor := palette.TextMuted
	if len(s.data) >= 2 {
		current, prev := s.data[len(s.data)-1], s.data[len(s.data)-2]
		if current > prev {
			trend, trendColor = "↗", palette.Success
		} else if current < prev {
			trend, trendColor = "↘", palette.Error
		}
	}

	return styledBlocks + " " + lipgloss.NewStyle().Foreground(trendColor).Render(trend)
}

// generateSparkBlocks creates the spark characters based on data
func (s *Sparkline) generateSparkBlocks() string {
	if s.width <= 0 {
		return ""
	}

	lo, hi := s.getMinMax()
	sparkChars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	var result strings.Builder
	written := 0

	for _, value := range s.data {
		if written >= s.width {
			break
		}

		index := len(sparkChars) / 2
		if hi > lo {
			index = int((value - lo) / (hi - lo) * float64(len(sparkChars)-1))
		}
		if index < 0 {
			index = 0
		} else if index >= len(sparkChars) {
			index = len(sparkChars) - 1
		}

		result.WriteRune(sparkChars[index])
		written++
	}

	// Pad by rune count; block characters are multi-byte.
	for ; written < s.width; written++ {
		result.WriteRune(' ')
	}

	return result.String()
}

// getMinMax finds the minimum and maximum values in the data
func (s *Sparkline) getMinMax() (float64, float64) {
	if len(s.data) == 0 {
		return 0, 0
	}

	lo, hi := s.data[0], s.data[0]
	for _, value := range s.data {
		if value < lo {
			lo = value
		}
		if value > hi {
			hi = value
		}
	}

	return lo, hi
}

// GetChangePercent returns the percentage change from first to last data point
func (s *Sparkline) GetChangePercent() float64 {
	if len(s.data) < 2 {
		return 0
	}

	first := s.data[0]
	last := s.data[len(s.data)-1]

	if first == 0 {
		return 0
	}

	return (last - first) / first * 100
}

// PriceHistory keeps the most recent prices per symbol for sparklines.
type PriceHistory struct {
	mu     sync.RWMutex
	limit  int
	series map[string][]float64
}

// NewPriceHistory creates a history holding up to limit points per symbol.
func NewPriceHistory(limit int) *PriceHistory {
	if limit <= 0 {
		limit = 60
	}
	return &PriceHistory{
		limit:  limit,
		series: make(map[string][]float64),
	}
}

// Record appends a price; unseeded prices are ignored.
func (h *PriceHistory) Record(symbol string, price float64) {
	if price <= 0 {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	points := append(h.series[symbol], price)
	if len(points) > h.limit {
		points = points[len(points)-h.limit:]
	}
	h.series[symbol] = points
}

// Series returns a copy of the recorded prices for symbol, oldest first.
func (h *PriceHistory) Series(symbol string) []float64 {
	h.mu.RLock()
	defer h.mu.RUnlock()

	points := h.series[symbol]
	out := make([]float64, len(points))
	copy(out, points)
	return out
}
