package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"stock_research/pkg/core/config"
	"stock_research/pkg/core/logging"
	"stock_research/pkg/core/report"
	"stock_research/pkg/core/research"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configPath string
	provider   string
	noPDF      bool
	htmlOnly   bool
	dryRun     bool
)

var rootCmd = &cobra.Command{
	Use:           "research",
	Short:         "AI stock and financial news research reports",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var stockCmd = &cobra.Command{
	Use:   "stock <tickers>",
	Short: "Research one or more comma separated stock tickers",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tickers := research.ParseTickers(strings.Join(args, ","))
		if len(tickers) == 0 {
			return errors.New("no ticker given")
		}
		svc, logger, err := setup()
		if err != nil {
			return err
		}
		defer logger.Sync()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		failed := 0
		for _, out := range svc.ResearchStocks(ctx, tickers) {
			if !printOutcome(out) {
				failed++
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d tickers failed", failed, len(tickers))
		}
		return nil
	},
}

var newsCmd = &cobra.Command{
	Use:   "news <topic>",
	Short: "Research a financial news topic",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, logger, err := setup()
		if err != nil {
			return err
		}
		defer logger.Sync()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		out, _ := svc.ResearchNews(ctx, strings.Join(args, " "))
		if !printOutcome(out) {
			return errors.New("news research failed")
		}
		return nil
	},
}

// loadConfig applies the persistent flags to the loaded configuration. It is
// shared by the research commands and serve.
func loadConfig() (config.Config, research.RenderMode, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, 0, err
	}
	if provider != "" {
		if _, ok := cfg.Provider(provider); !ok {
			return config.Config{}, 0, fmt.Errorf("unknown provider %q", provider)
		}
		cfg.ActiveProvider = provider
	}
	if dryRun {
		cfg = research.DryRun(cfg)
	}

	mode := research.RenderPDF
	switch {
	case noPDF:
		mode = research.RenderNone
	case htmlOnly:
		mode = research.RenderHTML
	}
	if mode == research.RenderPDF {
		pdf := report.NewPDFRenderer(cfg.ReportsDir, cfg.Renderer.WkhtmltopdfPath, cfg.Renderer.Timeout)
		if !pdf.IsAvailable() {
			fmt.Fprintf(os.Stderr, "[WARNING] %s not found; only HTML reports will be written. Install wkhtmltopdf or rerun with --html\n", pdf.BinaryPath)
		}
	}
	return cfg, mode, nil
}

func setup() (*research.Service, *zap.Logger, error) {
	cfg, mode, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.JSON)
	if err != nil {
		return nil, nil, err
	}

	svc, _, err := research.FromConfig(cfg, mode, logger)
	if err != nil {
		return nil, nil, err
	}
	logger.Debug("configuration loaded",
		zap.String("provider", cfg.ActiveProvider),
		zap.Int("max_iterations", cfg.Agent.MaxIterations),
		zap.String("reports_dir", cfg.ReportsDir),
	)
	return svc, logger, nil
}

// printOutcome writes the report to stdout and problems to stderr. It
// reports whether a report was produced.
func printOutcome(out *research.Outcome) bool {
	if out.Err != nil {
		fmt.Fprintf(os.Stderr, "[ERROR] %s: %v\n", out.Subject, out.Err)
		return false
	}

	fmt.Println(out.Report.Body)
	fmt.Println()
	if out.Truncated {
		fmt.Fprintf(os.Stderr, "[WARNING] %s: research stopped after %d tool calls; the report is incomplete\n", out.Subject, out.Iterations)
	}
	if out.RenderErr != nil {
		fmt.Fprintf(os.Stderr, "[WARNING] %s: report could not be rendered: %v\n", out.Subject, out.RenderErr)
		if errors.Is(out.RenderErr, report.ErrRendererUnavailable) {
			fmt.Fprintln(os.Stderr, "  Install wkhtmltopdf or rerun with --html")
		}
	}
	if out.ArtifactPath != "" {
		fmt.Fprintf(os.Stderr, "[REPORT] %s saved to %s\n", out.Subject, out.ArtifactPath)
	}
	return true
}

func init() {
	godotenv.Load()

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config/models.yaml", "Path to the configuration file")
	rootCmd.PersistentFlags().StringVar(&provider, "provider", "", "LLM provider to use (overrides active_provider)")
	rootCmd.PersistentFlags().BoolVar(&noPDF, "no-pdf", false, "Print the report without writing any artifact")
	rootCmd.PersistentFlags().BoolVar(&htmlOnly, "html", false, "Write a styled HTML report instead of a PDF")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "Use an offline scripted model instead of a real provider")

	rootCmd.AddCommand(stockCmd)
	rootCmd.AddCommand(newsCmd)
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
