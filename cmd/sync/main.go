package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/lowrey/playerdb/internal/app"
	"github.com/lowrey/playerdb/internal/config"
	"github.com/lowrey/playerdb/internal/platform/logging"
)

func main() {
	force := flag.Bool("force", false, "refresh every known player even when its stats look complete")
	projectionsOnly := flag.Bool("projections-only", false, "skip the player sync and only backfill projections")
	skipProjections := flag.Bool("skip-projections", false, "run the player sync without the projection second pass")
	weeksFlag := flag.String("weeks", "", "comma-separated week numbers to backfill projections for; empty means detect gaps")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewJSON(cfg.LogLevel)
	logging.SetDefault(logger)
	defer func() { _ = logger.Sync() }()

	weeks, err := parseWeeks(*weeksFlag)
	if err != nil {
		logger.Error("parse -weeks", "error", err)
		os.Exit(1)
	}
	if *projectionsOnly && *skipProjections {
		logger.Error("-projections-only and -skip-projections are mutually exclusive")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := app.OpenDB(ctx, cfg)
	if err != nil {
		logger.Error("open database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	services := app.BuildServices(cfg, db, logger)

	if !*projectionsOnly {
		report, err := services.Sync.Sync(ctx, *force)
		if err != nil {
			logger.ErrorContext(ctx, "sync failed", "error", err)
			os.Exit(1)
		}
		logger.InfoContext(ctx, "sync finished",
			"inserted", report.Inserted,
			"updated", report.Updated,
			"skipped", report.Skipped,
			"failed", report.Failed,
			"duration", report.FinishedAt.Sub(report.StartedAt).String(),
		)
	}

	if !*skipProjections {
		report, err := services.Projections.FillProjections(ctx, weeks)
		if err != nil {
			logger.ErrorContext(ctx, "projection backfill failed", "error", err)
			os.Exit(1)
		}
		logger.InfoContext(ctx, "projection backfill finished",
			"weeks", report.Weeks,
			"skipped_weeks", report.SkippedWeeks,
			"updated_entries", report.UpdatedEntries,
			"failed_entries", report.FailedEntries,
		)
	}
}

func parseWeeks(raw string) ([]int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	parts := strings.Split(raw, ",")
	weeks := make([]int, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		week, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid week %q", part)
		}
		weeks = append(weeks, week)
	}

	return weeks, nil
}
