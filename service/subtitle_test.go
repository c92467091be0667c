package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"scene-worker/pkg/whisper"
	"sort"
	"sync"
	"testing"
)

type fakeExtractor struct {
	mu     sync.Mutex
	inputs []string
	fail   string
}

func (e *fakeExtractor) ExtractAudio(ctx context.Context, input, output string) error {
	e.mu.Lock()
	e.inputs = append(e.inputs, filepath.Base(input))
	e.mu.Unlock()
	if filepath.Base(input) == e.fail {
		return errors.New("no audio stream")
	}
	return os.WriteFile(output, []byte("mp3"), 0o644)
}

type fakeTranscriber struct {
	audio []string
}

func (tr *fakeTranscriber) Transcribe(ctx context.Context, audioPath string) ([]whisper.Segment, error) {
	tr.audio = append(tr.audio, filepath.Base(audioPath))
	return []whisper.Segment{
		{ID: 0, Start: 0.4, End: 3.9, Text: " Hello."},
		{ID: 1, Start: 3661.2, End: 3665, Text: "Again"},
	}, nil
}

func TestFormatSRT(t *testing.T) {
	got := FormatSRT([]whisper.Segment{
		{ID: 0, Start: 0.4, End: 3.9, Text: " Hello."},
		{ID: 1, Start: 3661.2, End: 3665, Text: "Again"},
	})
	want := "1\n00:00:00,000 --> 00:00:03,000\nHello.\n\n2\n01:01:01,000 --> 01:01:05,000\nAgain\n\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestSubtitleService_Run(t *testing.T) {
	f := newFolder(t, "alpha")
	touch(t, filepath.Join(f.Path, "movie.mp4"), 4)
	touch(t, filepath.Join(f.Path, "movie-001.mp4"), 4)
	touch(t, filepath.Join(f.Path, "movie-002.mp4"), 4)
	touch(t, filepath.Join(f.Path, "done-001.mp4"), 4)
	touch(t, filepath.Join(f.Path, "done-001.srt"), 4)
	touch(t, filepath.Join(f.Path, "ABC-SUB-001.mp4"), 4)
	touch(t, filepath.Join(f.Path, "mute-001.mp4"), 4)
	touch(t, filepath.Join(f.AudioDir(), "old-001.mp3"), 4)

	extractor := &fakeExtractor{fail: "mute-001.mp4"}
	transcriber := &fakeTranscriber{}
	s := NewSubtitleService([]Folder{f}, ".mp4", extractor, transcriber, 2)

	stats, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	sort.Strings(extractor.inputs)
	if want := []string{"movie-001.mp4", "movie-002.mp4", "mute-001.mp4"}; len(extractor.inputs) != 3 ||
		extractor.inputs[0] != want[0] || extractor.inputs[1] != want[1] || extractor.inputs[2] != want[2] {
		t.Errorf("extracted: got %v, want %v", extractor.inputs, want)
	}
	if exists(filepath.Join(f.AudioDir(), "mute-001.mp3")) {
		t.Error("failed extraction left an audio file")
	}
	if want := []string{"movie-001.mp3", "movie-002.mp3", "old-001.mp3"}; len(transcriber.audio) != 3 ||
		transcriber.audio[0] != want[0] || transcriber.audio[2] != want[2] {
		t.Errorf("transcribed: got %v, want %v", transcriber.audio, want)
	}
	for _, name := range []string{"movie-001.srt", "movie-002.srt", "old-001.srt"} {
		if !exists(filepath.Join(f.Path, name)) {
			t.Errorf("%s missing", name)
		}
	}
	if stats.Extracted != 2 || stats.Transcribed != 3 || stats.Failed != 1 {
		t.Errorf("stats: %+v", stats)
	}

	again, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if again.Transcribed != 0 || again.Extracted != 0 {
		t.Errorf("second run did work: %+v", again)
	}
}
