package service

import (
	"context"
	"errors"
	"fmt"
	"github.com/rs/zerolog"
	"os"
	"path/filepath"
	"scene-worker/pkg/ffmpeg"
)

type Transcoder interface {
	Split(ctx context.Context, req ffmpeg.SplitRequest) error
}

type SplitOutcome string

const (
	SplitSkippedMissing  SplitOutcome = "skipped-missing-source"
	SplitSkippedExisting SplitOutcome = "skipped-existing-outputs"
	SplitPromoted        SplitOutcome = "promoted"
	SplitTranscoded      SplitOutcome = "transcoded"
)

type Splitter struct {
	transcoder   Transcoder
	store        *SceneStore
	nameTemplate string
	maxOrdinal   int
}

func NewSplitter(t Transcoder, store *SceneStore, nameTemplate string, maxOrdinal int) *Splitter {
	return &Splitter{transcoder: t, store: store, nameTemplate: nameTemplate, maxOrdinal: maxOrdinal}
}

// Split cuts the source video into one output per record entry. It does
// nothing when the source is gone or an output with ordinal 1..maxOrdinal
// already exists. A record without entries promotes the source itself to
// the first output.
func (s *Splitter) Split(ctx context.Context, folder Folder, recordPath, sourcePath string) (SplitOutcome, error) {
	ext := filepath.Ext(sourcePath)
	base := stem(sourcePath)
	log := zerolog.Ctx(ctx).With().Str("folder", folder.Name).Str("video", base+ext).Logger()

	snap, err := Inspect(folder, base, ext, s.store)
	if err != nil {
		return "", err
	}
	if !snap.SourceExists {
		log.Debug().Msg("source video missing, skipping split")
		return SplitSkippedMissing, nil
	}
	if snap.HasOutputWithin(s.maxOrdinal) {
		log.Debug().Int("outputs", len(snap.Outputs)).Msg("split outputs exist, skipping split")
		return SplitSkippedExisting, nil
	}

	record, err := s.store.Load(recordPath)
	if err != nil {
		return "", err
	}

	if len(record) == 0 {
		dst := filepath.Join(folder.Path, SplitOutputName(base, 1, ext))
		if err := os.Rename(sourcePath, dst); err != nil {
			return "", fmt.Errorf("promote %s: %w", sourcePath, err)
		}
		log.Info().Str("output", filepath.Base(dst)).Msg("no scenes kept, renamed source to first output")
		return SplitPromoted, nil
	}

	ranges, err := record.Ranges()
	if err != nil {
		return "", &RecordError{Path: recordPath, Err: err}
	}

	log.Info().Int("scenes", len(ranges)).Msg("splitting video")
	err = s.transcoder.Split(log.WithContext(ctx), ffmpeg.SplitRequest{
		Input:        sourcePath,
		Ranges:       ranges,
		OutputDir:    folder.Path,
		NameTemplate: s.nameTemplate,
		VideoName:    base,
	})
	if err != nil {
		s.removeOutputs(log, folder, base, len(ranges))
		return "", fmt.Errorf("split %s: %w", sourcePath, err)
	}
	log.Info().Int("scenes", len(ranges)).Msg("video split")
	return SplitTranscoded, nil
}

// removeOutputs deletes whatever a failed split left behind. ffmpeg opens
// every output before encoding, so truncated files would otherwise pass for
// a finished split on the next run.
func (s *Splitter) removeOutputs(log zerolog.Logger, folder Folder, base string, n int) {
	for i := 1; i <= n; i++ {
		name := ffmpeg.OutputName(s.nameTemplate, base, i)
		err := os.Remove(filepath.Join(folder.Path, name))
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Warn().Err(err).Str("output", name).Msg("failed to remove partial output")
			continue
		}
		if err == nil {
			log.Debug().Str("output", name).Msg("partial output removed")
		}
	}
}
