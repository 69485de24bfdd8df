package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"harvest-mcp/internal/calibration"
	"harvest-mcp/internal/config"
	"harvest-mcp/internal/forecast"
	"harvest-mcp/internal/logging"
	"harvest-mcp/internal/mcp"
	"harvest-mcp/internal/metrics"
	"harvest-mcp/internal/optimizer"
	"harvest-mcp/internal/store"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	// Version, Commit, and BuildDate are set at build time via ldflags.
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"

	verbose bool
	cfg     *config.AppConfig

	predictor *forecast.Predictor
	registry  *prometheus.Registry
)

var rootCmd = &cobra.Command{
	Use:   "harvest-mcp",
	Short: "harvest-mcp forecasts the ideal coffee harvest day and yield",
	Long: `An MCP Server and CLI that projects the ripeness stages of a coffee plot forward in time,
picks the day with the most ripe cherry fruit and estimates the yield in 60 kg sacks per hectare.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := logging.Init(verbose); err != nil {
			return err
		}

		var err error
		cfg, err = config.Load()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load configuration")
		}

		tables, err := calibration.Load(cfg.CalibrationFile)
		if err != nil {
			return fmt.Errorf("load calibration: %w", err)
		}

		registry = prometheus.NewRegistry()
		recorder, err := metrics.NewRecorder(registry)
		if err != nil {
			return fmt.Errorf("register metrics: %w", err)
		}

		predictor = forecast.NewPredictor(tables,
			forecast.WithMinimizer(optimizer.NewGridSearch(cfg.GridSteps)),
			forecast.WithObserver(recorder))

		log.Info().
			Str("version", Version).
			Str("commit", Commit).
			Str("buildDate", BuildDate).
			Msg("harvest-mcp starting")
		return nil
	},
	RunE: runServer,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP server on stdio (the default when no command is given)",
	RunE:  runServer,
}

func runServer(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	if cfg.MetricsAddr != "" {
		go serveMetrics(ctx, cfg.MetricsAddr)
	}

	log.Info().Msg("MCP Server starting Stdio loop")
	return mcp.NewServer(cfg, predictor, st, Version).Start(ctx)
}

func serveMetrics(ctx context.Context, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(registry))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", addr).Msg("Serving metrics")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error().Err(err).Str("addr", addr).Msg("Metrics server stopped")
	}
}

func openStore() (*store.Store, error) {
	st, err := store.Open(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open plot store %s: %w", cfg.DatabasePath, err)
	}
	return st, nil
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.AddCommand(serveCmd)
}
