package server

import (
	"context"
	"errors"
	"fmt"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"net/http"
	"os/signal"
	"scene-worker/config"
	"scene-worker/constant"
	jobHandler "scene-worker/handler"
	"scene-worker/pkg/rabbitmq"
	"scene-worker/pkg/scheduler"
	"scene-worker/service"
	"syscall"
	"time"
)

// RunHttp starts the scheduler with its immediate first run, the optional
// broker trigger and the status API, and blocks until SIGINT or SIGTERM. A
// run in progress at shutdown is allowed to finish.
func RunHttp(cfg *config.Config) error {
	base, closer, err := setupLogger(cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	ctx, cancel := signal.NotifyContext(base, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log := zerolog.Ctx(ctx)
	log.Info().Str("env", cfg.App.Environment).Bool("isProduction", cfg.App.Environment == constant.EnvironmentProduction.String()).Send()
	if cfg.App.Environment == constant.EnvironmentProduction.String() {
		gin.SetMode(gin.ReleaseMode)
	}

	repo, svc, err := newService(ctx, cfg)
	if err != nil {
		log.Error().Err(err).Msg("failed to wire services")
		return err
	}

	sched := scheduler.New(cfg.Schedule.Interval, cfg.Schedule.EnqueuePolicy)
	serviceDeps := jobHandler.ServiceDependencies{
		Scheduler:  sched,
		RunService: svc,
		Subtitles:  cfg.Schedule.Subtitles,
	}

	if cfg.Queue != nil {
		conn, err := config.NewRabbitMQConn(ctx, cfg.Queue)
		if err != nil {
			log.Error().Err(err).Msg("broker trigger disabled")
		} else {
			triggerConsumer := rabbitmq.NewConsumer(conn, cfg.Queue, rabbitmq.RunBinding, 1, jobHandler.RunTriggerHandler)
			go func() {
				if err := triggerConsumer.Consume(ctx, serviceDeps); err != nil && !errors.Is(err, context.Canceled) {
					log.Error().Err(err).Msg("trigger consumer error")
				}
			}()
		}
	}

	var handler *http.Server
	if cfg.Server.HttpPort != "" {
		handler = &http.Server{
			Handler:           NewRouter(sched, repo, serviceDeps),
			Addr:              fmt.Sprintf(":%s", cfg.Server.HttpPort),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			log.Info().Str("addr", handler.Addr).Msg("start http server")
			if err := handler.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("http server error")
			}
		}()
	}

	log.Info().
		Dur("interval", cfg.Schedule.Interval).
		Str("policy", string(cfg.Schedule.EnqueuePolicy)).
		Strs("folders", cfg.Folders).
		Msg("starting scheduler")
	sched.Start(ctx, service.NewRunJob(svc, cfg.Schedule.Subtitles))

	if handler != nil {
		log.Info().Msg("shutting down server")
		shutdownCtx, cancelShutdown := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancelShutdown()
		if err := handler.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("http server shutdown")
		}
	}

	log.Info().Msg("server shutdown")
	return nil
}

// RunOnce executes a single job of jobType in the foreground.
func RunOnce(cfg *config.Config, jobType constant.JobType) error {
	base, closer, err := setupLogger(cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	_, svc, err := newService(base, cfg)
	if err != nil {
		zerolog.Ctx(base).Error().Err(err).Msg("failed to wire services")
		return err
	}
	return svc.Process(base, jobType)
}
