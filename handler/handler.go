package handler

import (
	"context"
	"encoding/json"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"scene-worker/dto"
	"scene-worker/pkg/scheduler"
	"scene-worker/service"
)

type Enqueuer interface {
	TryEnqueue(job scheduler.Job) bool
}

type ServiceDependencies struct {
	Scheduler  Enqueuer
	RunService service.Service
	Subtitles  bool
}

// Trigger places a run in the pending slot. It never waits: a request that
// finds a run already pending is refused.
func Trigger(ctx context.Context, req dto.RunRequest, deps ServiceDependencies) dto.RunAccepted {
	if req.RequestId == uuid.Nil {
		req.RequestId = uuid.New()
	}
	log := zerolog.Ctx(ctx).With().Str("request_id", req.RequestId.String()).Str("reason", req.Reason).Logger()

	job := service.NewRunJob(deps.RunService, deps.Subtitles || req.Subtitles)
	if !deps.Scheduler.TryEnqueue(job) {
		log.Info().Msg("run already pending, trigger refused")
		return dto.RunAccepted{Accepted: false, Message: "a run is already pending"}
	}
	log.Info().Bool("subtitles", deps.Subtitles || req.Subtitles).Msg("run enqueued")
	return dto.RunAccepted{Accepted: true, Message: "run enqueued"}
}

func RunTriggerHandler(ctx context.Context, msg amqp.Delivery, deps ServiceDependencies) error {
	var req dto.RunRequest
	if err := json.Unmarshal(msg.Body, &req); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to unmarshal run request")
		return err
	}

	Trigger(ctx, req, deps)
	return nil
}
