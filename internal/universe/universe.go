package universe

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"dip-screener/internal/model"
)

// Column is the CSV header holding ticker symbols.
const Column = "ticker"

// ErrNoTickerColumn indicates a ticker file without a ticker column.
var ErrNoTickerColumn = errors.New("universe: ticker column not found")

// Normalize uppercases a raw symbol and replaces class separators ("BRK.B"
// becomes "BRK-B"). It reports false for blank input.
func Normalize(raw string) (model.Ticker, bool) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if s == "" {
		return "", false
	}
	return model.Ticker(strings.ReplaceAll(s, ".", "-")), true
}

// Read parses tickers from CSV input with a ticker column. Blank entries are
// dropped and the rest normalized; order and duplicates are preserved.
func Read(r io.Reader) ([]model.Ticker, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoTickerColumn
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	col := -1
	for i, h := range header {
		if strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")) == Column {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, ErrNoTickerColumn
	}

	var tickers []model.Ticker
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read record: %w", err)
		}
		if col >= len(record) {
			continue
		}
		if t, ok := Normalize(record[col]); ok {
			tickers = append(tickers, t)
		}
	}
	return tickers, nil
}

// LoadFile reads the tickers of one CSV file.
func LoadFile(path string) ([]model.Ticker, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open ticker file: %w", err)
	}
	defer f.Close()

	tickers, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return tickers, nil
}

// Build merges ticker lists into a deduplicated, sorted universe.
func Build(lists ...[]model.Ticker) []model.Ticker {
	seen := make(map[model.Ticker]struct{})
	var out []model.Ticker
	for _, list := range lists {
		for _, t := range list {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Load reads every file and returns the combined universe.
func Load(paths ...string) ([]model.Ticker, error) {
	lists := make([][]model.Ticker, 0, len(paths))
	for _, p := range paths {
		tickers, err := LoadFile(p)
		if err != nil {
			return nil, err
		}
		lists = append(lists, tickers)
	}
	return Build(lists...), nil
}

// WriteFile writes tickers as a single-column CSV file.
func WriteFile(path string, tickers []model.Ticker) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{Column}); err != nil {
		return err
	}
	for _, t := range tickers {
		if err := writer.Write([]string{t.String()}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
