// Package scenedetect wraps the external scene-boundary detector.
//
// The detector is a helper program (by default `scene-detect`, shipped as
// scripts/scene-detect, a runner around PySceneDetect's ThresholdDetector)
// invoked as
//
//	scene-detect --input <video> --threshold <t> --method <floor|ceiling> --json
//
// which prints {"framerate": 29.97, "scenes": [{"start_frame": 0, "end_frame": 4200}], "error": ""}.
package scenedetect

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"scene-worker/pkg/timecode"
)

var (
	ErrDetect  = errors.New("scene detection failed")
	ErrTimeout = errors.New("scene detection timed out")
)

// Profile is a detector sensitivity configuration.
type Profile struct {
	Name      string
	Threshold float64
	Method    string
}

type CLI struct {
	Binary  string
	Timeout time.Duration
}

type output struct {
	Framerate float64 `json:"framerate"`
	Scenes    []struct {
		StartFrame int64 `json:"start_frame"`
		EndFrame   int64 `json:"end_frame"`
	} `json:"scenes"`
	Error string `json:"error,omitempty"`
}

func NewCLI(binary string, timeout time.Duration) *CLI {
	if binary == "" {
		binary = "scene-detect"
	}
	return &CLI{Binary: binary, Timeout: timeout}
}

func (c *CLI) Args(videoPath string, p Profile) []string {
	args := []string{
		"--input", videoPath,
		"--threshold", strconv.FormatFloat(p.Threshold, 'f', -1, 64),
	}
	if p.Method != "" {
		args = append(args, "--method", p.Method)
	}
	return append(args, "--json")
}

// Detect runs the detector and returns the ordered scene ranges.
func (c *CLI) Detect(ctx context.Context, videoPath string, p Profile) ([]timecode.Range, error) {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.Binary, c.Args(videoPath, p)...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, errors.Join(ErrTimeout, err)
		}
		var out output
		if json.Unmarshal(stdout.Bytes(), &out) == nil && out.Error != "" {
			return nil, fmt.Errorf("%w: %s", ErrDetect, out.Error)
		}
		return nil, fmt.Errorf("%w: %s %s: %v: %s", ErrDetect, c.Binary, videoPath, err, strings.TrimSpace(stderr.String()))
	}
	return Parse(stdout.Bytes())
}

// Parse decodes the detector JSON document.
func Parse(b []byte) ([]timecode.Range, error) {
	if len(bytes.TrimSpace(b)) == 0 {
		return nil, fmt.Errorf("%w: empty detector output", ErrDetect)
	}
	var out output
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("%w: decode output: %v", ErrDetect, err)
	}
	if out.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrDetect, out.Error)
	}
	if out.Framerate <= 0 {
		return nil, fmt.Errorf("%w: invalid framerate %v", ErrDetect, out.Framerate)
	}

	ranges := make([]timecode.Range, 0, len(out.Scenes))
	for i, s := range out.Scenes {
		if s.EndFrame < s.StartFrame {
			return nil, fmt.Errorf("%w: scene %d ends before it starts", ErrDetect, i+1)
		}
		ranges = append(ranges, timecode.Range{
			Start: timecode.FromFrames(s.StartFrame, out.Framerate),
			End:   timecode.FromFrames(s.EndFrame, out.Framerate),
		})
	}
	return ranges, nil
}
