package whisper

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestArgs(t *testing.T) {
	c := &CLI{Binary: "whisper", Model: "large", Language: "ja", Task: "translate", Device: "cpu"}
	got := strings.Join(c.Args("a.mp3", "/tmp/out"), " ")
	want := "a.mp3 --model large --task translate --output_format json --output_dir /tmp/out --verbose False --language ja --device cpu"
	if got != want {
		t.Errorf("Args:\n got %q\nwant %q", got, want)
	}

	c.Language = "auto"
	if strings.Contains(strings.Join(c.Args("a.mp3", "o"), " "), "--language") {
		t.Error("auto language should not be passed")
	}
}

func TestParseTranscript(t *testing.T) {
	segs, err := ParseTranscript([]byte(`{"text": "hi there", "segments": [{"id": 0, "start": 0.0, "end": 2.5, "text": " hi"}, {"id": 1, "start": 2.5, "end": 4.0, "text": " there"}]}`))
	if err != nil {
		t.Fatalf("ParseTranscript: %v", err)
	}
	if len(segs) != 2 || segs[1].ID != 1 || segs[1].Text != " there" {
		t.Errorf("unexpected segments: %+v", segs)
	}
	if _, err := ParseTranscript([]byte("{")); err == nil {
		t.Error("expected decode error")
	}
}

func TestTranscribe_ReadsOutputFile(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts not supported")
	}
	dir := t.TempDir()
	bin := filepath.Join(dir, "whisper.sh")
	// $1 is the audio path, $9 the output dir per Args ordering.
	script := "#!/bin/sh\n" +
		"echo '{\"segments\": [{\"id\": 0, \"start\": 1, \"end\": 3, \"text\": \" hello\"}]}' > \"$9/clip-001.json\"\n"
	os.WriteFile(bin, []byte(script), 0o755)

	c := &CLI{Binary: bin, Model: "tiny", Task: "transcribe"}
	segs, err := c.Transcribe(context.Background(), filepath.Join(dir, "clip-001.mp3"))
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if len(segs) != 1 || segs[0].Text != " hello" {
		t.Errorf("unexpected segments: %+v", segs)
	}
}
