package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/simaogato/dcaflow-backend/internal/adapter/presenter"
	"github.com/simaogato/dcaflow-backend/internal/adapter/scenario"
	"github.com/simaogato/dcaflow-backend/internal/app"
	"github.com/simaogato/dcaflow-backend/internal/config"
	"github.com/simaogato/dcaflow-backend/internal/domain"
	"github.com/simaogato/dcaflow-backend/internal/usecase/simulation"
	"github.com/simaogato/dcaflow-backend/pkg/logger"
)

// Version is reported by the version command
var Version = "dev"

// OpenFunc assembles the service graph for a command
type OpenFunc func(ctx context.Context, cfg *config.Config, opts app.Options) (*app.App, error)

// Options configures NewRootCmd
type Options struct {
	Out  io.Writer
	Open OpenFunc // defaults to app.New with a stderr logger
}

// NewRootCmd creates the root command
func NewRootCmd(opts Options) *cobra.Command {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}

	var configPath string
	var cfg *config.Config

	rootCmd := &cobra.Command{
		Use:   "dcasim",
		Short: "Dollar cost averaging simulator",
		Long: `dcasim replays a monthly dollar cost averaging plan against stored daily closes.
Conditional rules can redirect a month's contribution when a price threshold or a drawdown from the all-time high is hit.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				configPath = os.Getenv("CONFIG_PATH")
			}
			var err error
			cfg, err = config.Load(configPath)
			return err
		},
	}
	rootCmd.SetOut(opts.Out)
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Configuration file path (default $CONFIG_PATH)")

	if opts.Open == nil {
		opts.Open = func(ctx context.Context, cfg *config.Config, o app.Options) (*app.App, error) {
			log := logger.New(logger.Config{Level: cfg.Log.Level, Pretty: true, Output: os.Stderr})
			return app.New(ctx, cfg, o, log)
		}
	}
	getConfig := func() *config.Config { return cfg }

	rootCmd.AddCommand(newSimulateCmd(opts, getConfig))
	rootCmd.AddCommand(newRefreshCmd(opts, getConfig))
	rootCmd.AddCommand(newQuoteCmd(opts, getConfig))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// newSimulateCmd creates the simulate command
func newSimulateCmd(opts Options, getConfig func() *config.Config) *cobra.Command {
	var (
		file     string
		offline  bool
		refresh  bool
		currency string
		rate     string
		lang     string
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run a simulation scenario",
		Long: `Run the scenario described by a YAML or JSON file.
Example: dcasim simulate -f scenario.yaml --currency KRW --rate 1400 --lang en`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := getConfig()
			if !offline {
				if err := cfg.Validate(); err != nil {
					return err
				}
			}

			req, err := scenario.LoadFile(file)
			if err != nil {
				return err
			}
			if err := applyPresentation(req, cfg, currency, rate); err != nil {
				return err
			}
			if refresh {
				req.RefreshPrices = true
			}

			simCfg, err := req.ToConfig()
			if err != nil {
				return err
			}

			a, err := opts.Open(cmd.Context(), cfg, app.Options{Offline: offline})
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.Simulation.Run(cmd.Context(), simCfg, simulation.RunOptions{
				RefreshPrices: req.RefreshPrices && !offline,
			})
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(scenario.NewResponse(result))
			}

			if lang == "" {
				lang = cfg.Presentation.Language
			}
			report := presenter.Present(result, presenter.NewConverter(simCfg.Currency), presenter.ParseLanguage(lang))
			Print(cmd.OutOrStdout(), RenderReport(report))
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Scenario file (.yaml, .yml or .json)")
	cmd.Flags().BoolVar(&offline, "offline", false, "Use stored prices only")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "Refresh every referenced ticker before simulating")
	cmd.Flags().StringVar(&currency, "currency", "", "Display currency (default from scenario, then config)")
	cmd.Flags().StringVar(&rate, "rate", "", "Display currency units per USD")
	cmd.Flags().StringVar(&lang, "lang", "", "Report language, ko or en")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the raw result as JSON")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

// applyPresentation fills the display currency: flags win over the scenario, the scenario over config
func applyPresentation(req *scenario.Request, cfg *config.Config, currency, rate string) error {
	if currency != "" {
		req.Currency = currency
	}
	if req.Currency == "" {
		req.Currency = cfg.Presentation.Currency
	}

	switch {
	case rate != "":
		r, err := decimal.NewFromString(rate)
		if err != nil {
			return fmt.Errorf("%w: invalid rate %q", domain.ErrInvalidConfig, rate)
		}
		req.ExchangeRate = r
	case req.ExchangeRate.IsZero():
		req.ExchangeRate = decimal.NewFromFloat(cfg.Presentation.ExchangeRate)
	}
	return nil
}

// newRefreshCmd creates the refresh command
func newRefreshCmd(opts Options, getConfig func() *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh TICKER...",
		Short: "Download missing daily closes",
		Long: `Bring the stored series of each ticker up to date with the configured provider.
Example: dcasim refresh QQQ TQQQ`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := getConfig()
			if err := cfg.Validate(); err != nil {
				return err
			}

			a, err := opts.Open(cmd.Context(), cfg, app.Options{})
			if err != nil {
				return err
			}
			defer a.Close()
			if a.Updater == nil {
				return errors.New("price provider is not configured")
			}

			tickers := make([]string, 0, len(args))
			for _, t := range args {
				tickers = append(tickers, strings.ToUpper(t))
			}
			reports, err := a.Updater.RefreshAll(cmd.Context(), tickers)
			Print(cmd.OutOrStdout(), RenderRefresh(reports))
			return err
		},
	}
}

// newQuoteCmd creates the quote command
func newQuoteCmd(opts Options, getConfig func() *config.Config) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "quote TICKER",
		Short: "Show the stored close and drawdown of a ticker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			asOf := domain.Day(time.Now())
			if date != "" {
				d, err := domain.ParseDate(date)
				if err != nil {
					return err
				}
				asOf = d
			}

			a, err := opts.Open(cmd.Context(), getConfig(), app.Options{Offline: true})
			if err != nil {
				return err
			}
			defer a.Close()

			q, err := a.Simulation.Quote(cmd.Context(), strings.ToUpper(args[0]), asOf)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s close %s, all-time high %s, drawdown %s%%\n",
				q.Ticker, domain.FormatDate(q.CloseDate), q.Close, q.AllTimeHigh, q.Drawdown.StringFixed(2))
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Date in YYYY-MM-DD format (today if not provided)")
	return cmd
}

// newVersionCmd creates the version command
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "dcasim %s\n", Version)
		},
	}
}

