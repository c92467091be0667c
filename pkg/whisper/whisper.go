// Package whisper invokes the external speech-to-text engine.
package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

type Segment struct {
	ID    int     `json:"id"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

type transcript struct {
	Text     string    `json:"text"`
	Language string    `json:"language"`
	Segments []Segment `json:"segments"`
}

type CLI struct {
	Binary   string
	Model    string
	Language string
	Task     string
	Device   string
	Timeout  time.Duration
}

func (c *CLI) Args(audioPath, outDir string) []string {
	args := []string{
		audioPath,
		"--model", c.Model,
		"--task", c.Task,
		"--output_format", "json",
		"--output_dir", outDir,
		"--verbose", "False",
	}
	if c.Language != "" && c.Language != "auto" {
		args = append(args, "--language", c.Language)
	}
	if c.Device != "" {
		args = append(args, "--device", c.Device)
	}
	return args
}

// Transcribe runs the engine on one audio file and returns its segments.
func (c *CLI) Transcribe(ctx context.Context, audioPath string) ([]Segment, error) {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	outDir, err := os.MkdirTemp("", "whisper-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(outDir)

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.Binary, c.Args(audioPath, outDir)...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = err.Error()
		}
		return nil, fmt.Errorf("whisper transcription failed for %s: %s", audioPath, detail)
	}

	stem := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	b, err := os.ReadFile(filepath.Join(outDir, stem+".json"))
	if err != nil {
		return nil, fmt.Errorf("whisper output for %s: %w", audioPath, err)
	}
	return ParseTranscript(b)
}

func ParseTranscript(b []byte) ([]Segment, error) {
	var t transcript
	if err := json.Unmarshal(b, &t); err != nil {
		return nil, fmt.Errorf("decode whisper transcript: %w", err)
	}
	return t.Segments, nil
}
