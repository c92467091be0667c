package service

import (
	"context"
	"errors"
	"github.com/rs/zerolog"
	"os"
	"path/filepath"
	"scene-worker/pkg/scenedetect"
	"scene-worker/pkg/timecode"
)

type SceneDetector interface {
	Detect(ctx context.Context, videoPath string, p scenedetect.Profile) ([]timecode.Range, error)
}

type DetectOutcome string

const (
	DetectSkippedSplitOutput DetectOutcome = "skipped-split-output"
	DetectSkippedExisting    DetectOutcome = "skipped-existing"
	DetectPersisted          DetectOutcome = "persisted"
	DetectFailed             DetectOutcome = "failed"
)

type Detector struct {
	detector        SceneDetector
	store           *SceneStore
	defaultProfile  scenedetect.Profile
	coarseProfile   scenedetect.Profile
	maxSceneSeconds float64
}

func NewDetector(d SceneDetector, store *SceneStore, defaultProfile, coarseProfile scenedetect.Profile, maxSceneSeconds float64) *Detector {
	return &Detector{
		detector:        d,
		store:           store,
		defaultProfile:  defaultProfile,
		coarseProfile:   coarseProfile,
		maxSceneSeconds: maxSceneSeconds,
	}
}

// DetectAndPersist writes the scene record of video unless it already has one.
// Failures are logged and reported through the outcome; they never abort the
// folder walk.
func (d *Detector) DetectAndPersist(ctx context.Context, folder Folder, video string) DetectOutcome {
	log := zerolog.Ctx(ctx).With().Str("folder", folder.Name).Str("video", video).Logger()

	if IsSplitOutput(video) {
		log.Debug().Msg("video already split, skipping detection")
		return DetectSkippedSplitOutput
	}

	base := stem(video)
	exists, err := d.store.Exists(folder, base)
	if err != nil {
		log.Error().Err(err).Msg("failed to check scene record")
		return DetectFailed
	}
	if exists {
		log.Debug().Msg("scene record exists, skipping detection")
		return DetectSkippedExisting
	}

	log.Info().Msg("detecting scenes")
	ranges, profile, err := d.detect(log.WithContext(ctx), filepath.Join(folder.Path, video))
	if err != nil {
		log.Error().Err(err).Str("profile", profile.Name).Msg("scene detection failed")
		return DetectFailed
	}

	record, err := d.store.Save(folder, base, ranges)
	if errors.Is(err, os.ErrExist) {
		log.Info().Msg("scene record appeared during detection, keeping it")
		return DetectSkippedExisting
	}
	if err != nil {
		log.Error().Err(err).Msg("failed to save scene record")
		return DetectFailed
	}

	log.Info().
		Int("detected", len(ranges)).
		Int("kept", len(record)).
		Str("profile", profile.Name).
		Msg("scene record saved")
	return DetectPersisted
}

// detect runs the default profile and falls back to the coarse profile once
// when any scene is longer than maxSceneSeconds.
func (d *Detector) detect(ctx context.Context, path string) ([]timecode.Range, scenedetect.Profile, error) {
	ranges, err := d.detector.Detect(ctx, path, d.defaultProfile)
	if err != nil {
		return nil, d.defaultProfile, err
	}

	longest := 0.0
	for _, r := range ranges {
		if r.Duration() > longest {
			longest = r.Duration()
		}
	}
	if longest <= d.maxSceneSeconds {
		return ranges, d.defaultProfile, nil
	}

	zerolog.Ctx(ctx).Info().
		Float64("longest_seconds", longest).
		Str("profile", d.coarseProfile.Name).
		Msg("scene too long, detecting again")
	ranges, err = d.detector.Detect(ctx, path, d.coarseProfile)
	if err != nil {
		return nil, d.coarseProfile, err
	}
	return ranges, d.coarseProfile, nil
}
