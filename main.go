package main

import (
	"github.com/rs/zerolog/log"
	"os"
	"scene-worker/cmd"
	"scene-worker/config"
)

func main() {
	path, err := os.Getwd()
	if err != nil {
		log.Fatal().Err(err).Send()
	}
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	root := cmd.Root(cfg)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
