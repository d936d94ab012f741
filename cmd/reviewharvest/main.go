package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/crawlworks/reviewharvest/api"
	"github.com/crawlworks/reviewharvest/cache"
	"github.com/crawlworks/reviewharvest/config"
	"github.com/crawlworks/reviewharvest/crawl"
	"github.com/crawlworks/reviewharvest/export"
	"github.com/crawlworks/reviewharvest/fetch"
	"github.com/crawlworks/reviewharvest/models"
)

var (
	flagMaxPages int
	flagOutput   string
	flagNoBody   bool
	flagFormat   string
	flagDebug    bool
)

func main() {
	root := &cobra.Command{
		Use:           "reviewharvest",
		Short:         "Extract structured reviews from paginated listing pages",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "enable debug logging")

	crawlCmd := &cobra.Command{
		Use:   "crawl <subject>",
		Short: "Crawl a subject's reviews and write them to CSV",
		Long: `Crawl a subject's reviews and write them to CSV.

The subject is a bare movie id (tt0111161), a movie URL, or a product URL.`,
		Args: cobra.ExactArgs(1),
		RunE: runCrawl,
	}
	crawlCmd.Flags().IntVar(&flagMaxPages, "max-pages", 0, "maximum number of pages to crawl (default from config, 5)")
	crawlCmd.Flags().StringVar(&flagOutput, "output", "", "output CSV filename (default derived from the subject title)")
	crawlCmd.Flags().BoolVar(&flagNoBody, "no-body", false, "skip the per-review permalink fetch for full review text")
	crawlCmd.Flags().StringVar(&flagFormat, "format", "", "review body format: text or markdown")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the crawl HTTP API",
		RunE:  runServe,
	}

	root.AddCommand(crawlCmd, serveCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func runCrawl(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	initLogger(cfg.Log)

	opts := crawl.OptionsFromConfig(cfg.Crawl)
	if flagMaxPages > 0 {
		opts.MaxPages = flagMaxPages
	}
	if flagNoBody {
		opts.FetchBody = false
	}
	if flagFormat != "" {
		opts.BodyFormat = flagFormat
	}

	orch := crawl.New(
		fetch.NewClient(cfg.Fetch),
		cache.New(cfg.Cache.MaxEntries, cfg.Cache.TTL),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	result, err := orch.Run(ctx, args[0], opts)
	if err != nil {
		if models.HasCode(err, models.ErrCodeInvalidSubject) || result == nil {
			return err
		}
		// Canceled mid-crawl: keep what was collected.
		fmt.Println("Crawl interrupted; writing partial results.")
	}

	if len(result.Records) == 0 && result.Product == nil {
		fmt.Println("No reviews were found. The site may have changed its markup.")
		return nil
	}

	path, err := export.SaveFile(flagOutput, result)
	if err != nil {
		return err
	}

	fmt.Printf("Collected %d reviews for %q across %d pages.\n",
		len(result.Records), result.Title, result.PagesVisited)
	if result.Skipped > 0 {
		fmt.Printf("Skipped %d malformed review fragments.\n", result.Skipped)
	}
	fmt.Printf("Saved to %s\n", path)
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	initLogger(cfg.Log)

	slog.Info("reviewharvest starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
	)

	orch := crawl.New(
		fetch.NewClient(cfg.Fetch),
		cache.New(cfg.Cache.MaxEntries, cfg.Cache.TTL),
	)

	startTime := time.Now()
	router := api.NewRouter(orch, cfg, startTime)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig.String())

	// Give in-flight requests 5 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}

	slog.Info("reviewharvest stopped")
	return nil
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	if flagDebug {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	slog.SetDefault(slog.New(handler))
}
