// CurveWatch is a US Treasury yield curve analytics tool.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/curvewatch/curvewatch/api"
	"github.com/curvewatch/curvewatch/internal/config"
	"github.com/curvewatch/curvewatch/internal/curve"
	"github.com/curvewatch/curvewatch/internal/datasource"
	"github.com/curvewatch/curvewatch/internal/report"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config and logger, set in PersistentPreRunE.
var (
	cfg    *config.Config
	logger *zap.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "curvewatch",
	Short: "CurveWatch — US Treasury yield curve analytics",
	Long: `CurveWatch loads the US Treasury par yield curve from the Federal
Reserve H.15 release (or treasury.gov, or a local CSV), interpolates
yields at any maturity, derives spreads, implied forward rates,
duration risk and shape classification, and serves it all over a REST
API with a live dashboard.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
			cfg.Logging.Level = lvl
		}
		logger, err = buildLogger(cfg.Logging)
		if err != nil {
			return fmt.Errorf("failed to set up logging: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("file", "", "load the curve from a local CSV instead of the network")
	rootCmd.PersistentFlags().String("date", "", "date filter, e.g. 2024-02 (substring match)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(yieldCmd)
	rootCmd.AddCommand(forwardCmd)
	rootCmd.AddCommand(spreadCmd)
	rootCmd.AddCommand(shapeCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(newsCmd)
	rootCmd.AddCommand(serveCmd)
}

// buildLogger constructs the zap logger the logging config describes.
func buildLogger(lc config.LoggingConfig) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if lc.Level != "" {
		var err error
		level, err = zapcore.ParseLevel(lc.Level)
		if err != nil {
			return nil, fmt.Errorf("unknown log level %q", lc.Level)
		}
	}

	var zc zap.Config
	if lc.Format == "json" {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.DisableStacktrace = true
	return zc.Build()
}

// loadCurve fetches rows from the configured source (or the --file and
// --date overrides) and loads them into a fresh store.
func loadCurve(cmd *cobra.Command) (*curve.Store, error) {
	if file, _ := cmd.Flags().GetString("file"); file != "" {
		cfg.Data.Source = "file"
		cfg.Data.File = file
	}
	if df, _ := cmd.Flags().GetString("date"); df != "" {
		cfg.Data.DateFilter = df
	}

	vocab, err := curve.VocabularyByName(cfg.Curve.Vocabulary)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	agg := datasource.NewAggregatorFromConfig(cfg, logger)
	data, err := agg.FetchCurve(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch curve: %w", err)
	}

	st := curve.NewStore(vocab)
	if !st.Load(data.Rows, cfg.Data.DateFilter) {
		if cfg.Data.DateFilter != "" {
			return nil, fmt.Errorf("no curve rows matching date filter %q", cfg.Data.DateFilter)
		}
		return nil, fmt.Errorf("no usable curve rows")
	}
	return st, nil
}

// reportConfig maps the application config onto the report settings.
func reportConfig() report.Config {
	rc := report.DefaultConfig()
	if cfg.Curve.CouponRate > 0 {
		rc.CouponRate = cfg.Curve.CouponRate
	}
	return rc
}

// parseFloatArg parses a positional maturity/time argument in years.
func parseFloatArg(raw, name string) (float64, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: must be a number of years", name, raw)
	}
	return v, nil
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("CurveWatch %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Analyze Command ---

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Full console analysis of the yield curve",
	Long: `Fetch the configured curve (H.15 by default, or --file) and print the
full console analysis: points, key spreads, implied forwards, economic
indicators and the interest rate risk table.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := loadCurve(cmd)
		if err != nil {
			return err
		}

		fmt.Print(report.GenerateText(st, reportConfig()))
		return nil
	},
}

// --- Yield Command ---

var yieldCmd = &cobra.Command{
	Use:   "yield <maturity>",
	Short: "Interpolated yield at a maturity in years",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := parseFloatArg(args[0], "maturity")
		if err != nil {
			return err
		}

		st, err := loadCurve(cmd)
		if err != nil {
			return err
		}

		fmt.Printf("Yield at %.2f years (%s): %.2f%%\n", m, st.Date(), st.YieldAt(m))
		return nil
	},
}

// --- Forward Command ---

var forwardCmd = &cobra.Command{
	Use:   "forward <t1> <t2>",
	Short: "Implied forward rate between two maturities",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		t1, err := parseFloatArg(args[0], "t1")
		if err != nil {
			return err
		}
		t2, err := parseFloatArg(args[1], "t2")
		if err != nil {
			return err
		}

		st, err := loadCurve(cmd)
		if err != nil {
			return err
		}

		fwd, err := st.ForwardRate(t1, t2)
		if err != nil {
			return err
		}

		fmt.Printf("Implied forward rate %.2fY to %.2fY (%s): %.2f%%\n", t1, t2, st.Date(), fwd)
		return nil
	},
}

// --- Spread Command ---

var spreadCmd = &cobra.Command{
	Use:   "spread <m1> <m2>",
	Short: "Yield spread between two maturities",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		m1, err := parseFloatArg(args[0], "m1")
		if err != nil {
			return err
		}
		m2, err := parseFloatArg(args[1], "m2")
		if err != nil {
			return err
		}

		st, err := loadCurve(cmd)
		if err != nil {
			return err
		}

		spread := st.Spread(m1, m2)
		fmt.Printf("Spread %.2fY to %.2fY (%s): %.2f pct pts (%.0f bps)\n",
			m1, m2, st.Date(), spread, spread*100)
		return nil
	},
}

// --- Shape Command ---

var shapeCmd = &cobra.Command{
	Use:   "shape",
	Short: "Curve shape classification and economic indicators",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := loadCurve(cmd)
		if err != nil {
			return err
		}

		warning := "NO"
		if st.RecessionWarning() {
			warning = "YES"
		}

		fmt.Printf("Date:              %s\n", st.Date())
		fmt.Printf("Curve Shape:       %s\n", st.Shape())
		fmt.Printf("Steepness:         %s\n", st.Steepness())
		fmt.Printf("Recession Warning: %s\n", warning)
		fmt.Printf("Term Premium:      %.0f bps\n", st.TermPremium()*100)
		return nil
	},
}

// --- Summary Command ---

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Quick market summary plus advanced market analysis",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := loadCurve(cmd)
		if err != nil {
			return err
		}

		fmt.Print(report.GenerateSummary(st))
		fmt.Println()
		fmt.Print(report.GenerateAdvanced(st, reportConfig()))
		return nil
	},
}

// --- Export Command ---

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the curve as dashboard JSON or analysis CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		out, _ := cmd.Flags().GetString("out")

		st, err := loadCurve(cmd)
		if err != nil {
			return err
		}

		rc := reportConfig()
		var write func(io.Writer) error
		var defaultName string
		switch format {
		case "json":
			write = func(w io.Writer) error { return report.WriteJSON(w, st, rc) }
			defaultName = "yield_curve.json"
		case "csv":
			write = func(w io.Writer) error { return report.WriteCSV(w, st, rc) }
			defaultName = "yield_analysis.csv"
		case "csv-legacy":
			write = func(w io.Writer) error { return report.WriteLegacyCSV(w, st, rc) }
			defaultName = "yield_analysis_legacy.csv"
		default:
			return fmt.Errorf("unknown format %q (want json, csv or csv-legacy)", format)
		}

		if out == "" {
			out = filepath.Join(cfg.Output.Dir, defaultName)
		}
		if out == "-" {
			return write(os.Stdout)
		}

		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("create %s: %w", out, err)
		}
		defer f.Close()

		if err := write(f); err != nil {
			return fmt.Errorf("export %s: %w", out, err)
		}

		fmt.Printf("Exported %s curve (%s) to %s\n", format, st.Date(), out)
		return nil
	},
}

func init() {
	exportCmd.Flags().String("format", "json", "export format: json, csv or csv-legacy")
	exportCmd.Flags().String("out", "", `output path ("-" for stdout; default <output.dir>/<name>)`)
}

// --- Fetch Command ---

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch the latest curve and print the loaded points",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := loadCurve(cmd)
		if err != nil {
			return err
		}

		fmt.Printf("Loaded curve for %s (%d points)\n\n", st.Date(), st.Len())
		for _, p := range st.Points() {
			fmt.Printf("  %-5s %6.2f years  %5.2f%%\n", p.Label, p.Maturity, p.Yield)
		}
		return nil
	},
}

// --- News Command ---

var newsCmd = &cobra.Command{
	Use:   "news",
	Short: "Latest Fed and Treasury rates headlines",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		if limit <= 0 {
			limit = cfg.News.Limit
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 20*time.Second)
		defer cancel()

		agg := datasource.NewAggregatorFromConfig(cfg, logger)
		articles, err := agg.NewsSource().GetMarketNews(ctx, limit)
		if err != nil {
			return fmt.Errorf("fetch news: %w", err)
		}
		if len(articles) == 0 {
			fmt.Println("No headlines available.")
			return nil
		}

		for i, a := range articles {
			fmt.Printf("%2d. %s\n", i+1, a.Title)
			fmt.Printf("    %s | %s\n", a.Source, a.PublishedAt.Format("2006-01-02 15:04"))
			if a.URL != "" {
				fmt.Printf("    %s\n", a.URL)
			}
			fmt.Println()
		}
		return nil
	},
}

func init() {
	newsCmd.Flags().Int("limit", 0, "max headlines (default from config)")
}

// --- Serve Command (API Server) ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server and dashboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		srv, err := api.NewServer(cfg, logger)
		if err != nil {
			return err
		}
		srv.SetVersion(version)
		if noUI, _ := cmd.Flags().GetBool("no-ui"); noUI {
			srv.SetServeUI(false)
		}

		// Warm up with an initial fetch; failures are non-fatal, the
		// server starts empty and refreshes on demand.
		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		if _, err := srv.Warmup(ctx); err != nil {
			logger.Warn("initial curve fetch failed; serving empty until refresh",
				zap.Error(err))
		}
		cancel()

		addr := cfg.Server.Addr()
		if flagAddr, _ := cmd.Flags().GetString("addr"); flagAddr != "" {
			addr = flagAddr
		}

		fmt.Printf("CurveWatch API listening on %s\n", addr)
		return srv.ListenAndServe(addr)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address override (host:port)")
	serveCmd.Flags().Bool("no-ui", false, "serve the API only, without the embedded dashboard")
}
