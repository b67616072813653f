package alerting

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/multierr"

	"dip-screener/internal/model"
)

// Notifier 定义报告输送接口。
type Notifier interface {
	Notify(ctx context.Context, report *model.OpportunityReport) error
}

// Multi fans a report out to every notifier and joins their errors.
type Multi []Notifier

// Notify delivers to every channel even when an earlier one fails.
func (m Multi) Notify(ctx context.Context, report *model.OpportunityReport) error {
	var err error
	for _, n := range m {
		if n == nil {
			continue
		}
		err = multierr.Append(err, n.Notify(ctx, report))
	}
	return err
}

// Subject renders the message subject, e.g. "(3) Opportunities - 2024-03-08".
func Subject(report *model.OpportunityReport) string {
	return fmt.Sprintf("(%d) Opportunities - %s", len(report.Opportunities), report.Date)
}

// Body renders one line per opportunity: "TICKER: drop% | RSI rsi".
func Body(report *model.OpportunityReport) string {
	lines := make([]string, 0, len(report.Opportunities))
	for _, r := range report.Opportunities {
		lines = append(lines, fmt.Sprintf("%s: %s%% | RSI %s", r.Ticker, model.FormatFloat(r.DropPct), model.FormatRSI(r.RSI)))
	}
	return strings.Join(lines, "\n")
}

var _ Notifier = Multi(nil)
