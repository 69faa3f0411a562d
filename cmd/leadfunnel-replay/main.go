// Command leadfunnel-replay replays a recorded interaction log against a
// saved page and prints the session summary and heatmap export.
//
//	leadfunnel-replay -page landing.html -events session.jsonl [-profile capture.yaml] [-post http://localhost:4000/api/v1]
package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"leadfunnel/internal/core/dom"
	"leadfunnel/internal/core/tracker"
	"leadfunnel/internal/platform/config"
	"leadfunnel/internal/platform/logger"
	"leadfunnel/internal/services/replay"
)

func main() {
	_ = godotenv.Load()
	// stdout carries the result
	lo := logger.FromEnv()
	lo.Writer = os.Stderr
	logger.Init(lo)
	l := logger.Get()

	var (
		pagePath    = flag.String("page", "", "saved HTML page")
		eventsPath  = flag.String("events", "", "interaction log, one JSON event per line")
		profilePath = flag.String("profile", "", "YAML capture profile (defaults to CORE_CAPTURE_* with every session enrolled)")
		pageURL     = flag.String("url", "https://example.com/", "page URL reported to the collectors")
		postURL     = flag.String("post", "", "API base URL to post the summary and samples to")
		seed        = flag.Int64("seed", 1, "cohort sampler seed")
	)
	flag.Parse()
	if *pagePath == "" || *eventsPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pf, err := os.Open(*pagePath)
	if err != nil {
		l.Fatal().Err(err).Msg("open page")
	}
	root, err := dom.Parse(pf)
	_ = pf.Close()
	if err != nil {
		l.Fatal().Err(err).Msg("parse page")
	}

	ef, err := os.Open(*eventsPath)
	if err != nil {
		l.Fatal().Err(err).Msg("open events")
	}
	steps, err := replay.ParseEvents(ef, root)
	_ = ef.Close()
	if err != nil {
		l.Fatal().Err(err).Msg("parse events")
	}

	opts := tracker.OptionsFromConf(config.New())
	opts.HeatmapRate, opts.RecordingRate = 1, 1
	if *profilePath != "" {
		f, err := os.Open(*profilePath)
		if err != nil {
			l.Fatal().Err(err).Msg("open profile")
		}
		opts, err = replay.LoadProfile(f)
		_ = f.Close()
		if err != nil {
			l.Fatal().Err(err).Msg("load profile")
		}
	}

	in := replay.Input{
		Page:    root,
		PageURL: *pageURL,
		Steps:   steps,
		Options: opts,
		Seed:    *seed,
		Start:   time.Now().UTC(),
	}
	if *postURL != "" {
		in.Forward = tracker.NewHTTPSink(*postURL, "")
	}

	res, err := replay.Run(ctx, in)
	if err != nil {
		l.Fatal().Err(err).Msg("replay failed")
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		l.Fatal().Err(err).Msg("encode result")
	}
	if len(res.Errors) > 0 {
		os.Exit(1)
	}
}
