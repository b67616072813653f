package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"dip-screener/internal/alerting"
	"dip-screener/internal/config"
	"dip-screener/internal/fetcher"
	"dip-screener/internal/indicator"
	"dip-screener/internal/model"
	"dip-screener/internal/scheduler"
	"dip-screener/internal/service"
	"dip-screener/internal/storage"
	"dip-screener/internal/universe"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
	Out    io.Writer

	// source overrides the configured provider.
	source fetcher.Source
	sleep  fetcher.SleepFunc
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{
		Config: cfg,
		Logger: logger,
		Out:    os.Stdout,
		sleep:  fetcher.Sleep,
	}
}

func (a *App) newSource() fetcher.Source {
	if a.source != nil {
		return a.source
	}

	f := a.Config.Fetcher
	if f.Provider == "alpaca" {
		return fetcher.NewAlpaca(fetcher.AlpacaOptions{
			APIKey:    f.Alpaca.APIKey,
			APISecret: f.Alpaca.APISecret,
			BaseURL:   f.Alpaca.BaseURL,
			Feed:      f.Alpaca.Feed,
		}, a.Logger)
	}
	return fetcher.NewYahoo(fetcher.YahooOptions{
		BaseURL:   f.YahooBaseURL,
		Range:     f.Range,
		Timeout:   f.RequestTimeout,
		Proxy:     f.Proxy,
		UserAgent: f.UserAgent,
	}, a.Logger)
}

func (a *App) newFetcher() fetcher.PriceFetcher {
	f := a.Config.Fetcher
	policy := fetcher.RetryPolicy{
		MaxAttempts: f.MaxAttempts,
		BaseDelay:   f.BackoffBase,
		Step:        f.BackoffStep,
	}
	return fetcher.NewRetrying(a.newSource(), policy, a.sleep, a.Logger)
}

func (a *App) newEngine() (*indicator.Engine, error) {
	s := a.Config.Screen
	method, err := indicator.ParseRSIMethod(s.RSIMethod)
	if err != nil {
		return nil, err
	}
	return indicator.NewEngine(indicator.Params{
		WindowHighestDays: s.WindowHighestDays,
		MinBars:           s.MinBars,
		RSIPeriod:         s.RSIPeriod,
		RSIMethod:         method,
	}, a.Logger), nil
}

func (a *App) newNotifier() alerting.Notifier {
	e := a.Config.Email
	notifiers := alerting.Multi{
		alerting.NewEmailNotifier(alerting.EmailOptions{
			Host:     e.Host,
			Port:     e.Port,
			Username: e.Username,
			Password: e.Password,
			From:     e.From,
			To:       e.To,
			Timeout:  e.Timeout,
		}, a.Logger),
	}

	if t := a.Config.Alerting.Telegram; t.Enabled {
		notifiers = append(notifiers, alerting.NewTelegramNotifier(t.BotToken, t.ChatID, t.APIBase, t.Timeout, a.Logger))
	}
	return notifiers
}

func (a *App) newStore() *storage.FileStore {
	return storage.NewFileStore(a.Config.Output.Dir)
}

func (a *App) thresholds() service.Thresholds {
	return service.Thresholds{
		DropPct:      a.Config.Screen.DropPct,
		RSIThreshold: a.Config.Screen.RSIThreshold,
	}
}

func (a *App) newService(priceFetcher fetcher.PriceFetcher) (*service.Service, error) {
	engine, err := a.newEngine()
	if err != nil {
		return nil, err
	}
	s := a.Config.Screen
	return service.New(service.Options{
		Thresholds:    a.thresholds(),
		Pacing:        s.Pacing,
		ProgressEvery: s.ProgressEvery,
		Workers:       s.Workers,
		Sleep:         a.sleep,
	}, priceFetcher, engine, a.newStore(), a.newNotifier(), a.Logger), nil
}

func (a *App) loadUniverse() ([]model.Ticker, error) {
	tickers, err := universe.Load(a.Config.Universe.Files...)
	if err != nil {
		return nil, err
	}
	if len(tickers) == 0 {
		return nil, errors.New("ticker universe is empty")
	}
	a.Logger.Info().Int("tickers", len(tickers)).Strs("files", a.Config.Universe.Files).Msg("universe loaded")
	return tickers, nil
}

// Run executes one screening pass over the configured universe.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return a.runOnce(ctx)
}

func (a *App) runOnce(ctx context.Context) error {
	tickers, err := a.loadUniverse()
	if err != nil {
		return err
	}

	svc, err := a.newService(a.newFetcher())
	if err != nil {
		return err
	}

	report, out, err := svc.Run(ctx, tickers)
	if err != nil {
		return err
	}

	if out.DeliveryErr != nil {
		a.Logger.Warn().Err(out.DeliveryErr).Str("artifact", out.ArtifactPath).Msg("report saved but not delivered")
	}
	if !report.Empty() {
		fmt.Fprintf(a.Out, "%s\n%s\n", alerting.Subject(report), alerting.Body(report))
	}
	return nil
}

// Schedule runs a screening pass on the configured cron schedule until
// interrupted.
func (a *App) Schedule(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	loc, err := a.Config.Scheduler.Location()
	if err != nil {
		return err
	}
	sched, err := scheduler.New(scheduler.Options{
		Spec:       a.Config.Scheduler.Cron,
		Location:   loc,
		RunOnStart: a.Config.Scheduler.RunOnStart,
	}, a.Logger)
	if err != nil {
		return err
	}

	a.Logger.Info().Str("cron", a.Config.Scheduler.Cron).Str("timezone", loc.String()).Msg("starting screening schedule")
	err = sched.Run(ctx, func(ctx context.Context, _ time.Time) error {
		return a.runOnce(ctx)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("scheduler terminated with error")
		return err
	}

	a.Logger.Info().Msg("screening schedule stopped")
	return nil
}

// ExportOptions hold parameters for exporting one ticker's indicators.
type ExportOptions struct {
	Ticker  string
	PNGPath string
	CSVPath string
}

// ShowOptions configure the show command.
type ShowOptions struct {
	Date string
}

// AnalyzeOptions configure the analyze command.
type AnalyzeOptions struct {
	Ticker string
	JSON   bool
}

// SimulateOptions shape the synthetic series used by simulate.
type SimulateOptions struct {
	Peak float64
	Last float64
	Bars int
}
