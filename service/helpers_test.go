package service

import (
	"context"
	"os"
	"path/filepath"
	"scene-worker/pkg/ffmpeg"
	"scene-worker/pkg/scenedetect"
	"scene-worker/pkg/timecode"
	"strings"
	"sync"
	"testing"
)

var (
	testDefault = scenedetect.Profile{Name: "default", Threshold: 12, Method: "floor"}
	testCoarse  = scenedetect.Profile{Name: "coarse", Threshold: 225, Method: "ceiling"}
)

func rng(start, end float64) timecode.Range {
	return timecode.Range{Start: timecode.FromSeconds(start, 30), End: timecode.FromSeconds(end, 30)}
}

type fakeDetector struct {
	mu      sync.Mutex
	results map[string][]timecode.Range
	err     error
	calls   []scenedetect.Profile
}

func (f *fakeDetector) Detect(ctx context.Context, videoPath string, p scenedetect.Profile) ([]timecode.Range, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, p)
	if f.err != nil {
		return nil, f.err
	}
	return f.results[p.Name], nil
}

// fakeTranscoder records requests and, when size > 0, writes one output of
// size bytes per range. err is returned after the outputs are written, the
// way an encoder that dies mid-run leaves its files behind.
type fakeTranscoder struct {
	calls []ffmpeg.SplitRequest
	err   error
	size  int
}

func (f *fakeTranscoder) Split(ctx context.Context, req ffmpeg.SplitRequest) error {
	f.calls = append(f.calls, req)
	if f.size > 0 {
		for i := range req.Ranges {
			name := ffmpeg.OutputName(req.NameTemplate, req.VideoName, i+1)
			if err := os.WriteFile(filepath.Join(req.OutputDir, name), []byte(strings.Repeat("x", f.size)), 0o644); err != nil {
				return err
			}
		}
	}
	return f.err
}

func newFolder(t *testing.T, name string) Folder {
	t.Helper()
	f := Folder{Name: name, Path: filepath.Join(t.TempDir(), name)}
	if err := os.MkdirAll(f.Path, 0o755); err != nil {
		t.Fatal(err)
	}
	return f
}

func touch(t *testing.T, path string, size int) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(strings.Repeat("x", size)), 0o644); err != nil {
		t.Fatal(err)
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func saveRecord(t *testing.T, store *SceneStore, f Folder, base string, ranges ...timecode.Range) string {
	t.Helper()
	if _, err := store.EnsureDir(f); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Save(f, base, ranges); err != nil {
		t.Fatalf("Save: %v", err)
	}
	return store.Path(f, base)
}
