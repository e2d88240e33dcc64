package market

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/kilianp07/vppsim/core/fluctuate"
)

// PricePoint holds both market prices for one hour in €/MWh.
type PricePoint struct {
	Hour      string  `json:"hour"`
	DayAhead  float64 `json:"dayAhead"`
	Balancing float64 `json:"balancing"`
}

// PriceHistory is a day of hourly prices.
type PriceHistory []PricePoint

// GeneratePriceHistory builds 24 hourly points. Day-ahead follows a sine with
// the trough in the early morning and ±10 noise; balancing adds ±40 on top.
// Both are rounded to whole euros.
func GeneratePriceHistory(r fluctuate.Rand) PriceHistory {
	out := make(PriceHistory, 0, 24)
	for h := 0; h < 24; h++ {
		base := math.Sin(float64(h-6)/18*math.Pi)*100 + 400
		da := base + (r.Float64()*20 - 10)
		bal := da + (r.Float64()*80 - 40)
		out = append(out, PricePoint{
			Hour:      fmt.Sprintf("%02d:00", h),
			DayAhead:  math.Round(da),
			Balancing: math.Round(bal),
		})
	}
	return out
}

// ChartHTML renders both curves as a standalone HTML line chart.
func (p PriceHistory) ChartHTML() (string, error) {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Market Prices (24h)"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Hour"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Price (€/MWh)"}),
		charts.WithTooltipOpts(opts.Tooltip{Trigger: "axis"}),
	)

	hours := make([]string, 0, len(p))
	da := make([]opts.LineData, 0, len(p))
	bal := make([]opts.LineData, 0, len(p))
	for _, pt := range p {
		hours = append(hours, pt.Hour)
		da = append(da, opts.LineData{Value: pt.DayAhead})
		bal = append(bal, opts.LineData{Value: pt.Balancing})
	}
	line.SetXAxis(hours).
		AddSeries("Day-Ahead", da).
		AddSeries("Balancing", bal)

	var buf bytes.Buffer
	if err := line.Render(&buf); err != nil {
		return "", fmt.Errorf("render price chart: %w", err)
	}
	return buf.String(), nil
}

// WriteJSON encodes the history as an indented JSON array.
func (p PriceHistory) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(p)
}

// WriteCSV writes hour,dayAhead,balancing rows with a header.
func (p PriceHistory) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"hour", "dayAhead", "balancing"}); err != nil {
		return err
	}
	for _, pt := range p {
		rec := []string{
			pt.Hour,
			strconv.FormatFloat(pt.DayAhead, 'f', -1, 64),
			strconv.FormatFloat(pt.Balancing, 'f', -1, 64),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
