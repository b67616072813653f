package app

import (
	"context"
	"errors"
	"fmt"

	"dip-screener/internal/universe"
)

// RefreshUniverse rewrites the ticker files from the index constituent
// pages. The first configured file receives the S&P 500, the second the
// Nasdaq-100.
func (a *App) RefreshUniverse(ctx context.Context) error {
	files := a.Config.Universe.Files
	if len(files) < 2 {
		return errors.New("universe.files must name the S&P 500 and Nasdaq-100 files")
	}

	scraper := universe.NewScraper(a.Config.Fetcher.RequestTimeout, a.Logger)
	pages := []struct {
		url  string
		path string
	}{
		{a.Config.Universe.SP500URL, files[0]},
		{a.Config.Universe.Nasdaq100URL, files[1]},
	}

	for _, page := range pages {
		tickers, err := scraper.Constituents(ctx, page.url)
		if err != nil {
			return err
		}
		tickers = universe.Build(tickers)
		if err := universe.WriteFile(page.path, tickers); err != nil {
			return fmt.Errorf("write %s: %w", page.path, err)
		}
		fmt.Fprintf(a.Out, "%s: %d tickers\n", page.path, len(tickers))
	}
	return nil
}
