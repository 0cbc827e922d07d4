// cmd/trailerscrapexter/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/valpere/TrailerScrapexter/internal/config"
	"github.com/valpere/TrailerScrapexter/internal/server"
)

// Version information (set by build flags)
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

// main handles CLI arguments and routes to the appropriate command.
func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "crawl":
		if len(os.Args) < 3 {
			fmt.Fprintf(os.Stderr, "Error: performer name required\n")
			fmt.Fprintf(os.Stderr, "Usage: trailerscrapexter crawl <name> [--pages <n>]\n")
			os.Exit(1)
		}
		runCrawl(os.Args[2], intFlag("--pages", 1))

	case "search":
		if len(os.Args) < 3 {
			fmt.Fprintf(os.Stderr, "Error: performer name required\n")
			fmt.Fprintf(os.Stderr, "Usage: trailerscrapexter search <name> [--page <n>]\n")
			os.Exit(1)
		}
		runSearch(os.Args[2], intFlag("--page", 1))

	case "download":
		if len(os.Args) < 3 {
			fmt.Fprintf(os.Stderr, "Error: video URL required\n")
			fmt.Fprintf(os.Stderr, "Usage: trailerscrapexter download <video-url>\n")
			os.Exit(1)
		}
		runDownload(os.Args[2])

	case "audit":
		runAudit()

	case "serve":
		runServe()

	case "version", "--version", "-v":
		printVersion()

	case "help", "--help", "-h":
		printUsage()

	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command '%s'\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runCrawl(name string, pages int) {
	app, err := buildApp(loadConfig())
	if err != nil {
		fail(err)
	}
	defer app.Close()

	ctx, stop := signalContext()
	defer stop()

	summary, err := app.Runner.CrawlCast(ctx, name, pages)
	if summary != nil {
		fmt.Printf("Processed: %d  Succeeded: %d  Failed: %d  Skipped: %d\n",
			summary.Processed, summary.Succeeded, summary.Failed, summary.Skipped)
	}
	if err != nil && ctx.Err() == nil {
		fail(err)
	}
}

func runSearch(name string, page int) {
	app, err := buildApp(loadConfig())
	if err != nil {
		fail(err)
	}
	defer app.Close()

	ctx, stop := signalContext()
	defer stop()

	listings, err := app.Resolver.SearchCast(ctx, name, page)
	if err != nil {
		fail(err)
	}
	if len(listings) == 0 {
		fmt.Fprintf(os.Stderr, "No videos found for %q (page %d)\n", name, page)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(listings); err != nil {
		fail(err)
	}
}

func runDownload(videoURL string) {
	app, err := buildApp(loadConfig())
	if err != nil {
		fail(err)
	}
	defer app.Close()

	ctx, stop := signalContext()
	defer stop()

	result, err := app.Runner.ProcessVideo(ctx, videoURL, "")
	if err != nil {
		fail(err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(result)
	if !result.VideoOK && !result.Skipped {
		os.Exit(1)
	}
}

func runAudit() {
	app, err := buildApp(loadConfig())
	if err != nil {
		fail(err)
	}
	defer app.Close()

	report, err := app.Layout.Audit(app.Logger)
	if err != nil {
		fail(err)
	}
	app.Metrics.LeavesPruned(len(report.Pruned))
	fmt.Printf("Examined: %d  Kept: %d  Pruned: %d\n",
		report.Examined, report.Kept, len(report.Pruned))
	for _, dir := range report.Pruned {
		fmt.Printf("  pruned %s\n", dir)
	}
}

func runServe() {
	cfg := loadConfig()
	app, err := buildApp(cfg)
	if err != nil {
		fail(err)
	}
	defer app.Close()

	ctx, stop := signalContext()
	defer stop()

	srv := server.New(app.Resolver, app.Runner, app.MetricsHandler, server.Config{
		ListenAddress: cfg.Server.ListenAddress,
		ReadTimeout:   cfg.Server.ReadTimeout,
		WriteTimeout:  cfg.Server.WriteTimeout,
	}, app.Logger)

	if err := srv.ListenAndServe(ctx); err != nil {
		fail(err)
	}
}

// loadConfig reads the file named by --config (or TRAILERSCRAPEXTER_CONFIG),
// falling back to built-in defaults.
func loadConfig() *config.Config {
	path := stringFlag("--config", os.Getenv("TRAILERSCRAPEXTER_CONFIG"))
	if path == "" {
		return config.Default()
	}
	cfg, err := config.LoadFromFile(path)
	if err != nil {
		fail(fmt.Errorf("failed to load configuration: %w", err))
	}
	return cfg
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

// intFlag reads "--name <value>" anywhere on the command line.
func intFlag(name string, fallback int) int {
	for i, arg := range os.Args {
		if arg == name && i+1 < len(os.Args) {
			if n, err := strconv.Atoi(os.Args[i+1]); err == nil {
				return n
			}
		}
	}
	return fallback
}

func stringFlag(name, fallback string) string {
	for i, arg := range os.Args {
		if arg == name && i+1 < len(os.Args) {
			return os.Args[i+1]
		}
	}
	return fallback
}

func printUsage() {
	fmt.Println("TrailerScrapexter - Video Catalog Trailer Crawler")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  trailerscrapexter crawl <name> [--pages <n>]   Crawl a performer's catalog")
	fmt.Println("  trailerscrapexter search <name> [--page <n>]   List a performer's videos")
	fmt.Println("  trailerscrapexter download <video-url>         Download one video's assets")
	fmt.Println("  trailerscrapexter audit                        Prune incomplete downloads")
	fmt.Println("  trailerscrapexter serve                        Run the HTTP API")
	fmt.Println("  trailerscrapexter version                      Show version information")
	fmt.Println("  trailerscrapexter help                         Show this help message")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --config <file>                                Configuration file (YAML)")
}

// printVersion displays version information
func printVersion() {
	fmt.Printf("TrailerScrapexter %s\n", version)
	fmt.Printf("Build time: %s\n", buildTime)
	fmt.Printf("Git commit: %s\n", gitCommit)
}
