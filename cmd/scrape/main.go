package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/nguyenhonglinh/clone-domain/internal/config"
	"github.com/nguyenhonglinh/clone-domain/internal/pipeline"
)

func main() {
	cfgPath := flag.String("config", "configs/config.yaml", "Path to configuration file")
	sourceID := flag.String("source", "", "Source id to scrape (eg. BID_PAVIETNAM)")
	typeID := flag.String("type", "", "Page type id to scrape (eg. auction-close)")
	flag.Parse()

	if *sourceID == "" || *typeID == "" {
		fmt.Fprintln(os.Stderr, "both -source and -type are required")
		flag.Usage()
		os.Exit(2)
	}

	_ = godotenv.Load()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := pipeline.NewApp(ctx, *cfg, logger)
	if err != nil {
		logger.Error("failed to initialise scraper", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	records, err := app.Runner.RunJob(ctx, *sourceID, *typeID)
	if err != nil {
		logger.Error("scrape job failed", "source", *sourceID, "type", *typeID, "error", err)
		os.Exit(1)
	}

	logger.Info("scrape job finished", "source", *sourceID, "type", *typeID, "new_domains", len(records))
	for _, rec := range records {
		fmt.Printf("%4d  %s\n", rec.Index, rec.Domain)
	}
}
