package service

import (
	"context"
	"errors"
	"fmt"
	"github.com/rs/zerolog"
	"os"
	"path/filepath"
)

type RunStats struct {
	Folders        int `json:"folders"`
	SkippedFolders int `json:"skipped_folders"`
	Detected       int `json:"detected"`
	DetectFailed   int `json:"detect_failed"`
	Split          int `json:"split"`
	Archived       int `json:"archived"`
	Reduced        int `json:"reduced"`
	Incomplete     int `json:"incomplete"`
	Rejected       int `json:"rejected"`
	Failed         int `json:"failed"`
}

// Pipeline walks the configured folders in order: detect every unrecorded
// source, then split and reconcile every recorded one.
type Pipeline struct {
	folders    []Folder
	videoExt   string
	store      *SceneStore
	detector   *Detector
	splitter   *Splitter
	reconciler *Reconciler
}

func NewPipeline(folders []Folder, videoExt string, store *SceneStore, detector *Detector, splitter *Splitter, reconciler *Reconciler) *Pipeline {
	return &Pipeline{
		folders:    folders,
		videoExt:   videoExt,
		store:      store,
		detector:   detector,
		splitter:   splitter,
		reconciler: reconciler,
	}
}

// Run processes every folder. A missing folder is skipped; a folder that
// cannot be listed is reported in the joined error after the others ran.
func (p *Pipeline) Run(ctx context.Context) (RunStats, error) {
	var (
		stats RunStats
		errs  []error
	)
	for _, f := range p.folders {
		log := zerolog.Ctx(ctx).With().Str("folder", f.Name).Logger()

		fi, err := os.Stat(f.Path)
		if errors.Is(err, os.ErrNotExist) || (err == nil && !fi.IsDir()) {
			log.Warn().Str("path", f.Path).Msg("folder does not exist, skipping")
			stats.SkippedFolders++
			continue
		}
		if err != nil {
			log.Error().Err(err).Msg("failed to stat folder")
			errs = append(errs, fmt.Errorf("folder %s: %w", f.Name, err))
			continue
		}

		stats.Folders++
		if err := p.ProcessFolder(log.WithContext(ctx), f, &stats); err != nil {
			log.Error().Err(err).Msg("failed to process folder")
			errs = append(errs, fmt.Errorf("folder %s: %w", f.Name, err))
		}
	}

	zerolog.Ctx(ctx).Info().Interface("stats", stats).Msg("pipeline finished")
	return stats, errors.Join(errs...)
}

func (p *Pipeline) ProcessFolder(ctx context.Context, f Folder, stats *RunStats) error {
	log := zerolog.Ctx(ctx)

	created, err := p.store.EnsureDir(f)
	if err != nil {
		return err
	}
	if created {
		log.Info().Str("path", f.ScenesDir()).Msg("created scenes directory")
	}

	entries, err := os.ReadDir(f.Path)
	if err != nil {
		return err
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !hasExt(name, p.videoExt) || IsSplitOutput(name) {
			continue
		}
		switch p.detector.DetectAndPersist(ctx, f, name) {
		case DetectPersisted:
			stats.Detected++
		case DetectFailed:
			stats.DetectFailed++
		}
	}

	records, err := p.store.List(f)
	if err != nil {
		return err
	}
	for _, record := range records {
		if err := p.processRecord(ctx, f, record, stats); err != nil {
			log.Error().Err(err).Str("record", filepath.Base(record)).Msg("failed to process video")
			stats.Failed++
		}
	}
	return nil
}

// processRecord splits and reconciles one recorded video. A panic is
// contained to that video.
func (p *Pipeline) processRecord(ctx context.Context, f Folder, recordPath string, stats *RunStats) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while processing %s: %v", filepath.Base(recordPath), r)
		}
	}()

	source := filepath.Join(f.Path, stem(recordPath)+p.videoExt)

	split, err := p.splitter.Split(ctx, f, recordPath, source)
	if err != nil {
		return err
	}
	switch split {
	case SplitSkippedMissing:
		return nil
	case SplitPromoted:
		stats.Split++
		return nil
	case SplitTranscoded:
		stats.Split++
	}

	outcome, err := p.reconciler.Reconcile(ctx, f, recordPath, source)
	if err != nil {
		return err
	}
	switch outcome {
	case ReconcileArchived:
		stats.Archived++
	case ReconcileReduced:
		stats.Reduced++
	case ReconcileIncomplete:
		stats.Incomplete++
	case ReconcileRejected:
		stats.Rejected++
	}
	return nil
}
