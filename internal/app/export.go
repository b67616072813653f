package app

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"

	"dip-screener/internal/indicator"
	"dip-screener/internal/model"
	"dip-screener/internal/universe"
)

// indicatorRow is one bar with the derived series aligned to it. Undefined
// positions have ok flags cleared.
type indicatorRow struct {
	Date   time.Time
	Close  float64
	High   float64
	HighOK bool
	RSI    float64
	RSIOK  bool
}

// Export renders a ticker's closes, rolling high and RSI as PNG and/or CSV.
func (a *App) Export(ctx context.Context, opts ExportOptions) error {
	if opts.CSVPath == "" && opts.PNGPath == "" {
		return errors.New("at least one of --csv or --png must be provided")
	}

	ticker, ok := universe.Normalize(opts.Ticker)
	if !ok {
		return fmt.Errorf("invalid ticker %q", opts.Ticker)
	}

	series, ok := a.newFetcher().Fetch(ctx, ticker)
	if !ok {
		return fmt.Errorf("%s: no data found", ticker)
	}

	rows, err := a.indicatorRows(series)
	if err != nil {
		return err
	}
	a.Logger.Info().Str("ticker", ticker.String()).Int("bars", len(rows)).Msg("exporting indicators")

	if opts.CSVPath != "" {
		if err := writeIndicatorCSV(opts.CSVPath, rows); err != nil {
			return err
		}
	}

	if opts.PNGPath != "" {
		if err := writeIndicatorPNG(opts.PNGPath, ticker, rows); err != nil {
			return err
		}
	}

	return nil
}

func (a *App) indicatorRows(series model.PriceSeries) ([]indicatorRow, error) {
	s := a.Config.Screen
	method, err := indicator.ParseRSIMethod(s.RSIMethod)
	if err != nil {
		return nil, err
	}

	closes := series.Closes()
	highs := indicator.RollingMax(closes, s.WindowHighestDays)
	rsi := indicator.RSI(closes, s.RSIPeriod, method)

	rows := make([]indicatorRow, len(closes))
	for i, bar := range series.Bars {
		rows[i] = indicatorRow{Date: bar.Date, Close: bar.Close}
		if j := i - (s.WindowHighestDays - 1); j >= 0 && j < len(highs) {
			rows[i].High, rows[i].HighOK = highs[j], true
		}
		if j := i - s.RSIPeriod; j >= 0 && j < len(rsi) {
			rows[i].RSI, rows[i].RSIOK = rsi[j], true
		}
	}
	return rows, nil
}

func writeIndicatorCSV(path string, rows []indicatorRow) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"date", "close", "rolling_high", "drop_pct", "rsi"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, row := range rows {
		record := []string{row.Date.Format(model.DateLayout), formatPlain(row.Close), "", "", ""}
		if row.HighOK {
			record[2] = formatPlain(row.High)
			record[3] = formatPlain(indicator.Round(indicator.DropPct(row.Close, row.High), 2))
		}
		if row.RSIOK {
			record[4] = formatPlain(indicator.Round(row.RSI, 1))
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func writeIndicatorPNG(path string, ticker model.Ticker, rows []indicatorRow) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	var closeX, highX, rsiX []time.Time
	var closeY, highY, rsiY []float64
	for _, row := range rows {
		closeX = append(closeX, row.Date)
		closeY = append(closeY, row.Close)
		if row.HighOK {
			highX = append(highX, row.Date)
			highY = append(highY, row.High)
		}
		if row.RSIOK {
			rsiX = append(rsiX, row.Date)
			rsiY = append(rsiY, row.RSI)
		}
	}
	if len(closeX) < 2 {
		return errors.New("not enough bars to chart")
	}

	priceFormatter := func(v interface{}) string {
		return chart.FloatValueFormatterWithFormat(v, "%.2f")
	}
	series := []chart.Series{
		chart.TimeSeries{
			Name:    string(ticker) + " close",
			XValues: closeX,
			YValues: closeY,
		},
	}
	if len(highX) >= 2 {
		series = append(series, chart.TimeSeries{
			Name:    "Rolling high",
			XValues: highX,
			YValues: highY,
		})
	}
	if len(rsiX) >= 2 {
		series = append(series, chart.TimeSeries{
			Name:    "RSI",
			XValues: rsiX,
			YValues: rsiY,
			YAxis:   chart.YAxisSecondary,
		})
	}

	graph := chart.Chart{
		Title:  string(ticker),
		Width:  1280,
		Height: 720,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatter,
		},
		YAxis: chart.YAxis{
			Name:           "Adjusted close",
			ValueFormatter: priceFormatter,
		},
		YAxisSecondary: chart.YAxis{
			Name:  "RSI",
			Range: &chart.ContinuousRange{Min: 0, Max: 100},
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return graph.Render(chart.PNG, file)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func formatPlain(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
