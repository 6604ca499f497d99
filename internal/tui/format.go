package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/amishk599/priceask/internal/model"
	"github.com/amishk599/priceask/internal/prices"
)

var (
	nowStyle   = lipgloss.NewStyle().Bold(true)
	cheapStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42")) // green
	dearStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("203")) // red
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// RenderPriceTable renders one line per slot in Oslo time, marking the
// cheapest, dearest and current slots, followed by a summary line.
func RenderPriceTable(points []model.PricePoint, now time.Time) string {
	summary, ok := prices.Summarize(points)
	if !ok {
		return dimStyle.Render("no prices")
	}
	current, hasCurrent := prices.Current(points, now)

	var b strings.Builder
	for _, p := range points {
		line := fmt.Sprintf("%s-%s  %7.4f NOK/kWh",
			p.TimeStart.In(prices.Oslo).Format("15:04"),
			p.TimeEnd.In(prices.Oslo).Format("15:04"),
			p.NOKPerKWh,
		)
		isNow := hasCurrent && p.TimeStart.Equal(current.TimeStart)
		switch {
		case p.TimeStart.Equal(summary.Cheapest.TimeStart):
			line = cheapStyle.Render(line + "  ▼ cheapest")
		case p.TimeStart.Equal(summary.Dearest.TimeStart):
			line = dearStyle.Render(line + "  ▲ dearest")
		}
		if isNow {
			line = nowStyle.Render(line + "  ◀ now")
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	footer := fmt.Sprintf("avg %.4f NOK/kWh over %d slots", summary.Average, summary.Count)
	if hasCurrent {
		footer = fmt.Sprintf("now %.4f · %s", current.NOKPerKWh, footer)
	}
	b.WriteString(dimStyle.Render(footer))
	return b.String()
}

// RenderComparison renders several days or regions side by side, one column
// per series, marking each column's cheapest slot. A series without a given
// slot shows "-".
func RenderComparison(series []prices.Series) string {
	if len(series) == 0 {
		return dimStyle.Render("no prices")
	}
	rows := prices.Align(series)

	width := make([]int, len(series))
	cheapest := make([]time.Time, len(series))
	for i, s := range series {
		width[i] = max(len(s.Label()), 8)
		if sum, ok := prices.Summarize(s.Points); ok {
			cheapest[i] = sum.Cheapest.TimeStart
		}
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("%-6s", "slot"))
	for i, s := range series {
		b.WriteString(fmt.Sprintf("  %*s", width[i], s.Label()))
	}
	b.WriteString("\n")

	for _, r := range rows {
		b.WriteString(fmt.Sprintf("%-6s", r.Slot))
		for i := range series {
			if !r.Present[i] {
				b.WriteString(fmt.Sprintf("  %*s", width[i], "-"))
				continue
			}
			cell := fmt.Sprintf("%*.4f", width[i], r.Prices[i])
			if r.Starts[i].Equal(cheapest[i]) {
				cell = cheapStyle.Render(cell)
			}
			b.WriteString("  " + cell)
		}
		b.WriteString("\n")
	}

	b.WriteString(fmt.Sprintf("%-6s", "avg"))
	for i, s := range series {
		if sum, ok := prices.Summarize(s.Points); ok {
			b.WriteString(fmt.Sprintf("  %*.4f", width[i], sum.Average))
		} else {
			b.WriteString(fmt.Sprintf("  %*s", width[i], "-"))
		}
	}
	return b.String()
}

func wordWrap(text string, width int) string {
	if width <= 0 {
		return text
	}
	var out []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			out = append(out, "")
			continue
		}
		line := words[0]
		for _, w := range words[1:] {
			if len(line)+1+len(w) <= width {
				line += " " + w
			} else {
				out = append(out, line)
				line = w
			}
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}
