// Package ffmpeg invokes the external transcoder.
package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"scene-worker/pkg/timecode"
)

const DefaultNameTemplate = "$VIDEO_NAME-$SCENE_NUMBER.mp4"

var DefaultEncoderArgs = []string{
	"-c:v", "h264_nvenc",
	"-preset", "slow",
	"-cq", "18",
	"-rc:v", "vbr",
	"-maxrate", "5M",
	"-bufsize", "10M",
	"-g", "48",
	"-r", "30",
}

var ErrTimeout = errors.New("ffmpeg timed out")

// ExecError carries the captured stderr of a failed invocation.
type ExecError struct {
	Args   []string
	Stderr string
	Err    error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("ffmpeg execution failed: %v: %s", e.Err, lastLines(e.Stderr, 5))
}

func (e *ExecError) Unwrap() error { return e.Err }

type Transcoder struct {
	Path        string
	EncoderArgs []string
	Timeout     time.Duration
}

// SplitRequest describes one batched split of Input into len(Ranges) outputs.
type SplitRequest struct {
	Input        string
	Ranges       []timecode.Range
	OutputDir    string
	NameTemplate string
	VideoName    string
}

func NewTranscoder(path string, encoderArgs []string, timeout time.Duration) *Transcoder {
	if path == "" {
		path = "ffmpeg"
	}
	if len(encoderArgs) == 0 {
		encoderArgs = DefaultEncoderArgs
	}
	return &Transcoder{Path: path, EncoderArgs: encoderArgs, Timeout: timeout}
}

// OutputName expands the naming template for the 1-based scene ordinal.
func OutputName(template, videoName string, ordinal int) string {
	if template == "" {
		template = DefaultNameTemplate
	}
	return strings.NewReplacer(
		"$VIDEO_NAME", videoName,
		"$SCENE_NUMBER", fmt.Sprintf("%03d", ordinal),
	).Replace(template)
}

// SplitArgs builds a single invocation with one output per range; ffmpeg
// decodes the input once and feeds every output.
func (t *Transcoder) SplitArgs(req SplitRequest) []string {
	args := []string{"-hide_banner", "-nostdin", "-y", "-i", req.Input}
	for i, r := range req.Ranges {
		args = append(args,
			"-map", "0:v:0",
			"-map", "0:a?",
			"-ss", r.Start.String(),
			"-t", strconv.FormatFloat(r.Duration(), 'f', 3, 64),
		)
		args = append(args, t.EncoderArgs...)
		args = append(args, filepath.Join(req.OutputDir, OutputName(req.NameTemplate, req.VideoName, i+1)))
	}
	return args
}

// Split produces one output file per range.
func (t *Transcoder) Split(ctx context.Context, req SplitRequest) error {
	if len(req.Ranges) == 0 {
		return fmt.Errorf("split %s: no scenes", req.Input)
	}
	return t.run(ctx, t.SplitArgs(req))
}

func (t *Transcoder) ExtractAudio(ctx context.Context, input, output string) error {
	return t.run(ctx, []string{"-hide_banner", "-nostdin", "-y", "-i", input, "-vn", output})
}

func (t *Transcoder) run(ctx context.Context, args []string) error {
	if t.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.Timeout)
		defer cancel()
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, t.Path, args...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		execErr := &ExecError{Args: args, Stderr: stderr.String(), Err: err}
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return errors.Join(ErrTimeout, execErr)
		}
		return execErr
	}
	return nil
}

func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, " | ")
}
