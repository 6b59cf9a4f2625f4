package main

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/bootstrap"
	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/config"
	apihttp "github.com/ANIKETSHETTY47/solar-pr-monitor/internal/http"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	if err := config.Load(); err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	rt, err := bootstrap.New(context.Background(), log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}
	defer rt.Close()

	app := apihttp.NewApp(log.Logger)
	apihttp.Register(app, rt.Services, rt.Registry, log.Logger)

	addr := config.APIAddr()
	log.Info().Str("addr", addr).Str("store", config.StoreBackend()).Msg("api listening")
	if err := app.Listen(addr); err != nil {
		log.Error().Err(err).Msg("server exit")
	}
}
