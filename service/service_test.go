package service

import (
	"context"
	"path/filepath"
	"scene-worker/constant"
	"scene-worker/pkg/ffmpeg"
	"scene-worker/pkg/scheduler"
	"scene-worker/repository"
	"testing"
	"time"
)

func TestProcess_RecordsLedger(t *testing.T) {
	f := newFolder(t, "alpha")
	touch(t, filepath.Join(f.Path, "movie.mp4"), 10)
	p := newTestPipeline(t, &fakeTranscoder{size: 4}, f)
	repo := repository.NewMemRepo()
	svc := NewService(repo, p.Pipeline, nil)

	if err := svc.Process(context.Background(), constant.JobTypeScenePipeline); err != nil {
		t.Fatalf("Process: %v", err)
	}
	jobs, err := repo.ListJobs(context.Background(), 10)
	if err != nil || len(jobs) != 1 {
		t.Fatalf("ListJobs: %v %v", jobs, err)
	}
	job := jobs[0]
	if job.Status != constant.JobStatusCompleted || job.Detected != 1 || job.Archived != 1 || job.FinishedAt == nil {
		t.Errorf("job: %+v", job)
	}
}

func TestProcess_MissingStageFails(t *testing.T) {
	repo := repository.NewMemRepo()
	svc := NewService(repo, nil, nil)

	if err := svc.Process(context.Background(), constant.JobTypeSubtitle); err == nil {
		t.Fatal("expected an error for an unconfigured stage")
	}
	jobs, _ := repo.ListJobs(context.Background(), 10)
	if len(jobs) != 1 || jobs[0].Status != constant.JobStatusFailed || jobs[0].Error == "" {
		t.Errorf("jobs: %+v", jobs)
	}
}

func TestRunJob_UsesSchedulerRunID(t *testing.T) {
	f := newFolder(t, "alpha")
	store := NewSceneStore(120)
	p := NewPipeline([]Folder{f}, ".mp4", store,
		NewDetector(&fakeDetector{}, store, testDefault, testCoarse, 3600),
		NewSplitter(&fakeTranscoder{}, store, ffmpeg.DefaultNameTemplate, 10),
		NewReconciler(store, &DeleteArchiver{}),
	)
	repo := repository.NewMemRepo()
	sched := scheduler.New(time.Hour, scheduler.PolicyBlock)
	ctx, cancel := context.WithCancel(context.Background())
	job := NewRunJob(NewService(repo, p, nil), false)
	run := job.Run
	job.Run = func(ctx context.Context) error {
		defer cancel()
		return run(ctx)
	}

	sched.Start(ctx, job)

	last := sched.Status().LastRun
	if last == nil {
		t.Fatal("no run recorded")
	}
	got, err := repo.FindJobById(context.Background(), last.ID)
	if err != nil {
		t.Fatalf("ledger has no job for run %s: %v", last.ID, err)
	}
	if got.JobType != constant.JobTypeScenePipeline || got.Status != constant.JobStatusCompleted {
		t.Errorf("job: %+v", got)
	}
}
