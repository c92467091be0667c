package scenedetect

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	ranges, err := Parse([]byte(`{"framerate": 30, "scenes": [{"start_frame": 0, "end_frame": 3600}, {"start_frame": 3600, "end_frame": 9000}]}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(ranges) != 2 {
		t.Fatalf("got %d ranges, want 2", len(ranges))
	}
	if got := ranges[0].Duration(); got != 120 {
		t.Errorf("first duration: got %v, want 120", got)
	}
	if got := ranges[1].End.String(); got != "00:05:00.000" {
		t.Errorf("second end: got %q", got)
	}
}

func TestParse_Errors(t *testing.T) {
	cases := map[string]string{
		"empty":          "",
		"garbage":        "not json",
		"reported error": `{"error": "cannot open video"}`,
		"zero framerate": `{"framerate": 0, "scenes": []}`,
		"inverted range": `{"framerate": 25, "scenes": [{"start_frame": 10, "end_frame": 5}]}`,
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(in))
			if !errors.Is(err, ErrDetect) {
				t.Errorf("expected ErrDetect, got %v", err)
			}
		})
	}
}

func TestArgs(t *testing.T) {
	c := NewCLI("", 0)
	got := strings.Join(c.Args("/videos/a/movie.mp4", Profile{Threshold: 225, Method: "ceiling"}), " ")
	want := "--input /videos/a/movie.mp4 --threshold 225 --method ceiling --json"
	if got != want {
		t.Errorf("Args:\n got %q\nwant %q", got, want)
	}
	if c.Binary != "scene-detect" {
		t.Errorf("default binary: got %q", c.Binary)
	}
}

func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts not supported")
	}
	path := filepath.Join(t.TempDir(), "detector.sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDetect_RunsBinary(t *testing.T) {
	bin := writeScript(t, `echo '{"framerate": 25, "scenes": [{"start_frame": 0, "end_frame": 5000}]}'`)
	ranges, err := NewCLI(bin, 0).Detect(context.Background(), "movie.mp4", Profile{Threshold: 12})
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(ranges) != 1 || ranges[0].Duration() != 200 {
		t.Errorf("unexpected ranges: %+v", ranges)
	}
}

func TestDetect_FailureReportsError(t *testing.T) {
	bin := writeScript(t, `echo '{"error": "corrupt stream"}'; exit 2`)
	_, err := NewCLI(bin, 0).Detect(context.Background(), "movie.mp4", Profile{Threshold: 12})
	if !errors.Is(err, ErrDetect) {
		t.Fatalf("expected ErrDetect, got %v", err)
	}
	if !strings.Contains(err.Error(), "corrupt stream") {
		t.Errorf("error should carry detector message: %v", err)
	}
}

func TestDetect_Timeout(t *testing.T) {
	bin := writeScript(t, `exec sleep 5`)
	_, err := NewCLI(bin, 50*time.Millisecond).Detect(context.Background(), "movie.mp4", Profile{Threshold: 12})
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestArgs_MatchShippedHelper(t *testing.T) {
	script, err := os.ReadFile(filepath.Join("..", "..", "scripts", "scene-detect"))
	if err != nil {
		t.Fatalf("read helper: %v", err)
	}
	for _, p := range []Profile{{Threshold: 12, Method: "floor"}, {Threshold: 225, Method: "ceiling"}} {
		for _, arg := range NewCLI("", 0).Args("in.mp4", p) {
			if strings.HasPrefix(arg, "--") && !strings.Contains(string(script), `"`+arg+`"`) {
				t.Errorf("helper does not accept %s", arg)
			}
		}
		if !strings.Contains(string(script), `"`+p.Method+`"`) {
			t.Errorf("helper does not accept method %s", p.Method)
		}
	}
}
