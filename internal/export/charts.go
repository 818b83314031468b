package export

import (
	"bytes"
	"fmt"

	"github.com/wcharczuk/go-chart/v2"

	"moneygrowth/internal/core"
)

// RenderCategoryPie renders the month's spending-by-category breakdown
// as a PNG pie chart. Returns nil bytes when there is nothing to draw.
func RenderCategoryPie(ov core.MonthOverview) ([]byte, error) {
	var total int64
	for _, c := range ov.ByCategory {
		total += c.Amount.Cents
	}
	if total <= 0 {
		return nil, nil
	}

	values := make([]chart.Value, 0, len(ov.ByCategory))
	for _, c := range ov.ByCategory {
		percentage := float64(c.Amount.Cents) / float64(total) * 100
		// Slivers under 1% clutter the chart.
		if percentage < 1.0 {
			continue
		}
		values = append(values, chart.Value{
			Label: fmt.Sprintf("%s: %s (%.1f%%)", c.Name, core.FormatCents(c.Amount.Cents), percentage),
			Value: float64(c.Amount.Cents),
		})
	}
	if len(values) == 0 {
		return nil, nil
	}

	pie := chart.PieChart{
		Width:  1200,
		Height: 600,
		Values: values,
		Background: chart.Style{
			Padding: chart.Box{
				Top:    50,
				Left:   50,
				Right:  50,
				Bottom: 50,
			},
			FillColor: chart.ColorWhite,
		},
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := pie.Render(chart.PNG, buffer); err != nil {
		return nil, fmt.Errorf("render category pie: %w", err)
	}
	return buffer.Bytes(), nil
}

// RenderYearBars renders income and expenses per month as a PNG bar
// chart for one year.
func RenderYearBars(ov core.YearOverview) ([]byte, error) {
	bars := make([]chart.Value, 0, 24)
	var any bool
	for _, m := range ov.Months {
		if m.Income.Cents != 0 || m.Expenses.Cents != 0 {
			any = true
		}
		bars = append(bars, chart.Value{
			Label: fmt.Sprintf("%02d in", m.Month),
			Value: m.Income.Float(),
			Style: chart.Style{
				StrokeColor: chart.ColorGreen,
				FillColor:   chart.ColorGreen,
			},
		})
		bars = append(bars, chart.Value{
			Label: fmt.Sprintf("%02d out", m.Month),
			Value: m.Expenses.Float(),
			Style: chart.Style{
				StrokeColor: chart.ColorRed,
				FillColor:   chart.ColorRed,
			},
		})
	}
	if !any {
		return nil, nil
	}

	graph := chart.BarChart{
		Title:    fmt.Sprintf("Income and expenses %d", ov.Year),
		Width:    1200,
		Height:   600,
		BarWidth: 30,
		Background: chart.Style{
			Padding: chart.Box{
				Top:    50,
				Left:   50,
				Right:  50,
				Bottom: 50,
			},
			FillColor: chart.ColorWhite,
		},
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				return fmt.Sprintf("%.0f", v.(float64))
			},
		},
		Bars: bars,
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, fmt.Errorf("render year bars: %w", err)
	}
	return buffer.Bytes(), nil
}
