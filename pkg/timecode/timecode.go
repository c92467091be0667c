package timecode

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// DefaultFramerate is assumed when a persisted timecode carries no frame rate.
const DefaultFramerate = 30.0

// Timecode is a frame position within a video at a given frame rate.
type Timecode struct {
	Frames    int64
	Framerate float64
}

type Range struct {
	Start Timecode
	End   Timecode
}

func FromFrames(frames int64, framerate float64) Timecode {
	if framerate <= 0 {
		framerate = DefaultFramerate
	}
	return Timecode{Frames: frames, Framerate: framerate}
}

func FromSeconds(seconds, framerate float64) Timecode {
	if framerate <= 0 {
		framerate = DefaultFramerate
	}
	return Timecode{Frames: int64(math.Round(seconds * framerate)), Framerate: framerate}
}

// Parse reads an HH:MM:SS[.mmm] timecode.
func Parse(s string, framerate float64) (Timecode, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 3 {
		return Timecode{}, fmt.Errorf("invalid timecode %q", s)
	}
	hrs, err := strconv.Atoi(parts[0])
	if err != nil || hrs < 0 {
		return Timecode{}, fmt.Errorf("invalid hours in timecode %q", s)
	}
	mins, err := strconv.Atoi(parts[1])
	if err != nil || mins < 0 || mins > 59 {
		return Timecode{}, fmt.Errorf("invalid minutes in timecode %q", s)
	}
	secs, err := strconv.ParseFloat(parts[2], 64)
	if err != nil || secs < 0 || secs >= 60 {
		return Timecode{}, fmt.Errorf("invalid seconds in timecode %q", s)
	}
	return FromSeconds(float64(hrs*3600+mins*60)+secs, framerate), nil
}

func (t Timecode) Seconds() float64 {
	if t.Framerate <= 0 {
		return 0
	}
	return float64(t.Frames) / t.Framerate
}

// String formats the position as HH:MM:SS.mmm.
func (t Timecode) String() string {
	ms := int64(math.Round(t.Seconds() * 1000))
	hrs := ms / 3_600_000
	ms -= hrs * 3_600_000
	mins := ms / 60_000
	ms -= mins * 60_000
	secs := ms / 1000
	ms -= secs * 1000
	return fmt.Sprintf("%02d:%02d:%02d.%03d", hrs, mins, secs, ms)
}

func (r Range) Duration() float64 {
	return r.End.Seconds() - r.Start.Seconds()
}
