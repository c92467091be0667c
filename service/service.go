package service

import (
	"context"
	"errors"
	"fmt"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"scene-worker/constant"
	"scene-worker/entities"
	"scene-worker/pkg/scheduler"
	"scene-worker/repository"
	"time"
)

type Service interface {
	Process(ctx context.Context, jobType constant.JobType) error
}

type service struct {
	repo      repository.JobRepository
	pipeline  *Pipeline
	subtitles *SubtitleService
}

// Process runs one job of jobType and records it in the ledger. Ledger
// failures are logged and never fail the run.
func (s service) Process(ctx context.Context, jobType constant.JobType) (err error) {
	// The pipeline job takes the scheduler's run id; any later job of the same
	// run gets its own.
	id, ok := scheduler.RunID(ctx)
	if !ok || jobType != constant.JobTypeScenePipeline {
		id = uuid.New()
	}
	log := zerolog.Ctx(ctx).With().Str("job_id", id.String()).Str("job_type", string(jobType)).Logger()
	ctx = log.WithContext(ctx)

	started := time.Now()
	job := &entities.Job{ID: id, JobType: jobType, Status: constant.JobStatusPending, StartedAt: &started}
	if err := s.repo.CreateJob(ctx, job); err != nil {
		log.Warn().Err(err).Msg("failed to record job")
	}
	if err := s.repo.UpdateStatusJob(ctx, constant.JobStatusProcessing, job.ID); err != nil {
		log.Warn().Err(err).Msg("failed to update job status")
	}

	defer func() {
		finished := time.Now()
		job.FinishedAt = &finished
		job.Status = constant.JobStatusCompleted
		if err != nil {
			job.Status = constant.JobStatusFailed
			job.Error = err.Error()
		}
		if finishErr := s.repo.FinishJob(ctx, job); finishErr != nil {
			log.Warn().Err(finishErr).Msg("failed to update job status")
		}
	}()

	switch jobType {
	case constant.JobTypeScenePipeline:
		if s.pipeline == nil {
			return errors.New("scene pipeline is not configured")
		}
		stats, runErr := s.pipeline.Run(ctx)
		job.Folders = stats.Folders
		job.Detected = stats.Detected
		job.Split = stats.Split
		job.Archived = stats.Archived
		job.Reduced = stats.Reduced
		job.Failed = stats.Failed + stats.DetectFailed
		return runErr
	case constant.JobTypeSubtitle:
		if s.subtitles == nil {
			return errors.New("subtitle stage is not configured")
		}
		stats, runErr := s.subtitles.Run(ctx)
		job.Folders = stats.Folders
		job.Failed = stats.Failed
		return runErr
	}
	return fmt.Errorf("unknown job type %q", jobType)
}

func NewService(repo repository.JobRepository, pipeline *Pipeline, subtitles *SubtitleService) Service {
	return &service{
		repo:      repo,
		pipeline:  pipeline,
		subtitles: subtitles,
	}
}

// NewRunJob is the scheduled job: one pipeline pass, optionally followed by
// the subtitle stage in the same slot.
func NewRunJob(svc Service, subtitles bool) scheduler.Job {
	return scheduler.Job{
		Name: string(constant.JobTypeScenePipeline),
		Run: func(ctx context.Context) error {
			err := svc.Process(ctx, constant.JobTypeScenePipeline)
			if !subtitles {
				return err
			}
			return errors.Join(err, svc.Process(ctx, constant.JobTypeSubtitle))
		},
	}
}
