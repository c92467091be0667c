package service

import (
	"context"
	"errors"
	"fmt"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"os"
	"path/filepath"
	"scene-worker/pkg/fsx"
	"scene-worker/pkg/whisper"
	"sort"
	"strings"
	"sync/atomic"
)

const (
	audioExt    = ".mp3"
	subtitleExt = ".srt"
	// Files carrying this marker ship with burned-in subtitles.
	subtitledMarker = "-SUB"
)

type AudioExtractor interface {
	ExtractAudio(ctx context.Context, input, output string) error
}

type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) ([]whisper.Segment, error)
}

type SubtitleStats struct {
	Folders     int `json:"folders"`
	Extracted   int `json:"extracted"`
	Transcribed int `json:"transcribed"`
	Failed      int `json:"failed"`
}

// SubtitleService extracts audio from split outputs with a bounded pool and
// transcribes it one file at a time, since the engine holds a single model
// on the device.
type SubtitleService struct {
	folders     []Folder
	videoExt    string
	extractor   AudioExtractor
	transcriber Transcriber
	workers     int
}

func NewSubtitleService(folders []Folder, videoExt string, extractor AudioExtractor, transcriber Transcriber, workers int) *SubtitleService {
	if workers < 1 {
		workers = 1
	}
	return &SubtitleService{
		folders:     folders,
		videoExt:    videoExt,
		extractor:   extractor,
		transcriber: transcriber,
		workers:     workers,
	}
}

func (s *SubtitleService) Run(ctx context.Context) (SubtitleStats, error) {
	var (
		stats SubtitleStats
		errs  []error
	)
	for _, f := range s.folders {
		log := zerolog.Ctx(ctx).With().Str("folder", f.Name).Logger()
		if fi, err := os.Stat(f.Path); err != nil || !fi.IsDir() {
			log.Warn().Str("path", f.Path).Msg("folder does not exist, skipping")
			continue
		}
		stats.Folders++
		if err := s.ProcessFolder(log.WithContext(ctx), f, &stats); err != nil {
			log.Error().Err(err).Msg("failed to generate subtitles")
			errs = append(errs, fmt.Errorf("folder %s: %w", f.Name, err))
		}
	}
	zerolog.Ctx(ctx).Info().Interface("stats", stats).Msg("subtitle stage finished")
	return stats, errors.Join(errs...)
}

func (s *SubtitleService) ProcessFolder(ctx context.Context, f Folder, stats *SubtitleStats) error {
	if err := os.MkdirAll(f.AudioDir(), recordPerm); err != nil {
		return err
	}

	videos, err := s.audioCandidates(f)
	if err != nil {
		return err
	}
	extracted, failed := s.extractAll(ctx, f, videos)
	stats.Extracted += extracted
	stats.Failed += failed

	pending, err := s.transcriptionCandidates(f)
	if err != nil {
		return err
	}
	for _, audio := range pending {
		if err := s.transcribe(ctx, f, audio); err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Str("audio", filepath.Base(audio)).Msg("failed to generate subtitle")
			stats.Failed++
			continue
		}
		stats.Transcribed++
	}
	return nil
}

// audioCandidates are split outputs that have neither audio nor a subtitle.
func (s *SubtitleService) audioCandidates(f Folder) ([]string, error) {
	entries, err := os.ReadDir(f.Path)
	if err != nil {
		return nil, err
	}
	subtitled := subtitledStems(entries)

	var videos []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !hasExt(name, s.videoExt) || !IsSplitOutput(name) || subtitled[stem(name)] {
			continue
		}
		if _, err := os.Stat(filepath.Join(f.AudioDir(), stem(name)+audioExt)); err == nil {
			continue
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		videos = append(videos, name)
	}
	return videos, nil
}

func (s *SubtitleService) extractAll(ctx context.Context, f Folder, videos []string) (int, int) {
	log := zerolog.Ctx(ctx)
	log.Info().Int("videos", len(videos)).Int("workers", s.workers).Msg("extracting audio")

	var extracted, failed atomic.Int64
	var g errgroup.Group
	g.SetLimit(s.workers)
	for _, video := range videos {
		g.Go(func() error {
			out := filepath.Join(f.AudioDir(), stem(video)+audioExt)
			if err := s.extractor.ExtractAudio(ctx, filepath.Join(f.Path, video), out); err != nil {
				log.Error().Err(err).Str("video", video).Msg("failed to extract audio")
				// Drop the partial file so the next run retries.
				_ = os.Remove(out)
				failed.Add(1)
				return nil
			}
			extracted.Add(1)
			return nil
		})
	}
	_ = g.Wait()
	return int(extracted.Load()), int(failed.Load())
}

// transcriptionCandidates are audio files whose video has no subtitle yet.
func (s *SubtitleService) transcriptionCandidates(f Folder) ([]string, error) {
	entries, err := os.ReadDir(f.Path)
	if err != nil {
		return nil, err
	}
	subtitled := subtitledStems(entries)

	audio, err := os.ReadDir(f.AudioDir())
	if err != nil {
		return nil, err
	}
	var pending []string
	for _, e := range audio {
		if e.IsDir() || !hasExt(e.Name(), audioExt) || subtitled[stem(e.Name())] {
			continue
		}
		pending = append(pending, filepath.Join(f.AudioDir(), e.Name()))
	}
	sort.Strings(pending)
	return pending, nil
}

func (s *SubtitleService) transcribe(ctx context.Context, f Folder, audio string) error {
	name := stem(audio)
	zerolog.Ctx(ctx).Info().Str("video", name).Msg("generating subtitle")

	segments, err := s.transcriber.Transcribe(ctx, audio)
	if err != nil {
		return err
	}
	return fsx.WriteFileNoOverwrite(f.Path, name+subtitleExt, []byte(FormatSRT(segments)), 0o666)
}

func subtitledStems(entries []os.DirEntry) map[string]bool {
	stems := make(map[string]bool)
	for _, e := range entries {
		name := e.Name()
		if hasExt(name, subtitleExt) || strings.Contains(name, subtitledMarker) {
			stems[stem(name)] = true
		}
	}
	return stems
}

// FormatSRT renders segments with whole-second timestamps.
func FormatSRT(segments []whisper.Segment) string {
	var b strings.Builder
	for _, seg := range segments {
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n\n", seg.ID+1, srtTimestamp(seg.Start), srtTimestamp(seg.End), strings.TrimPrefix(seg.Text, " "))
	}
	return b.String()
}

func srtTimestamp(seconds float64) string {
	total := int(seconds)
	return fmt.Sprintf("%02d:%02d:%02d,000", total/3600, total%3600/60, total%60)
}
