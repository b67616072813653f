package universe

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"dip-screener/internal/model"
)

// Default constituent pages.
const (
	SP500URL     = "https://en.wikipedia.org/wiki/List_of_S%26P_500_companies"
	Nasdaq100URL = "https://en.wikipedia.org/wiki/Nasdaq-100"
)

var symbolHeaders = []string{"symbol", "ticker", "ticker symbol"}

// Scraper extracts index constituents from HTML tables.
type Scraper struct {
	client    *http.Client
	userAgent string
	logger    zerolog.Logger
}

// NewScraper constructs a Scraper.
func NewScraper(timeout time.Duration, logger zerolog.Logger) *Scraper {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Scraper{
		client:    &http.Client{Timeout: timeout},
		userAgent: "dipscreener/1.0",
		logger:    logger.With().Str("component", "universe_scraper").Logger(),
	}
}

// Constituents downloads pageURL and returns the normalized symbols of its
// constituents table.
func (s *Scraper) Constituents(ctx context.Context, pageURL string) ([]model.Ticker, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch constituents: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch constituents: status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse constituents page: %w", err)
	}

	tickers := ParseConstituents(doc)
	if len(tickers) == 0 {
		return nil, fmt.Errorf("no constituents found at %s", pageURL)
	}
	s.logger.Info().Str("url", pageURL).Int("tickers", len(tickers)).Msg("constituents scraped")
	return tickers, nil
}

// ParseConstituents finds the first table with a symbol column, preferring
// the one with id "constituents", and returns its normalized symbols.
func ParseConstituents(doc *goquery.Document) []model.Ticker {
	tables := doc.Find("table#constituents")
	if tables.Length() == 0 {
		tables = doc.Find("table.wikitable")
	}

	var tickers []model.Ticker
	tables.EachWithBreak(func(_ int, table *goquery.Selection) bool {
		col := symbolColumn(table)
		if col < 0 {
			return true
		}
		table.Find("tr").Each(func(_ int, row *goquery.Selection) {
			cells := row.Find("td")
			if cells.Length() <= col {
				return
			}
			if t, ok := Normalize(cells.Eq(col).Text()); ok {
				tickers = append(tickers, t)
			}
		})
		return len(tickers) == 0
	})
	return tickers
}

func symbolColumn(table *goquery.Selection) int {
	col := -1
	table.Find("tr").First().Find("th").EachWithBreak(func(i int, th *goquery.Selection) bool {
		header := strings.ToLower(strings.TrimSpace(th.Text()))
		for _, h := range symbolHeaders {
			if header == h {
				col = i
				return false
			}
		}
		return true
	})
	return col
}
