// @title         leadfunnel API
// @version       1.0
// @description   Lead scoring, session summaries and heatmap aggregation

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"leadfunnel/internal/platform/config"
	"leadfunnel/internal/platform/logger"
	phttp "leadfunnel/internal/platform/net/http"
	"leadfunnel/internal/platform/store"

	"leadfunnel/internal/services/api"
)

func main() {
	// a missing .env is fine, the process env wins either way
	_ = godotenv.Load()

	logger.Init(logger.FromEnv())
	l := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := config.New()
	apiCfg := root.Prefix("LEADFUNNEL_API_")

	st, err := store.Open(ctx, store.FromConf(root, "leadfunnel-api"), store.WithLogger(*l))
	if err != nil {
		l.Fatal().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	// reads LEADFUNNEL_API_PORT
	srv := phttp.NewServer(apiCfg)

	if err := api.Mount(ctx, srv.Router(), api.OptionsFromConf(root, st)); err != nil {
		l.Fatal().Err(err).Msg("api mount failed")
	}

	l.Info().Str("addr", srv.Addr()).Msg("leadfunnel api listening")
	if err := srv.Run(ctx); err != nil {
		l.Error().Err(err).Msg("http server stopped")
	}
}
