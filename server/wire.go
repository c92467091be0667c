package server

import (
	"context"
	"github.com/rs/zerolog"
	"io"
	"scene-worker/config"
	"scene-worker/pkg/logger"
	"scene-worker/repository"
	"scene-worker/service"
)

func setupLogger(cfg *config.Config) (context.Context, io.Closer, error) {
	log, closer, err := logger.New(logger.Options{
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		Console:    cfg.Log.Console,
		Level:      cfg.Log.Level,
	})
	if err != nil {
		return nil, nil, err
	}
	return logger.WithContext(context.Background(), log), closer, nil
}

func newRepo(ctx context.Context, cfg *config.Config) repository.JobRepository {
	if cfg.DB == nil {
		return repository.NewMemRepo()
	}
	repo, err := repository.NewRepo(cfg.DB)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("run ledger database unavailable, keeping jobs in memory")
		return repository.NewMemRepo()
	}
	return repo
}

func newService(ctx context.Context, cfg *config.Config) (repository.JobRepository, service.Service, error) {
	pipeline, err := service.NewPipelineFromConfig(cfg)
	if err != nil {
		return nil, nil, err
	}
	repo := newRepo(ctx, cfg)
	return repo, service.NewService(repo, pipeline, service.NewSubtitleServiceFromConfig(cfg)), nil
}
