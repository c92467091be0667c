package entities

import (
	"fmt"
	"scene-worker/pkg/timecode"
)

type SceneTimecode struct {
	Timecode  string  `json:"timecode"`
	Seconds   float64 `json:"seconds"`
	Frames    int64   `json:"frames"`
	Framerate float64 `json:"framerate"`
}

type SceneEntry struct {
	Start SceneTimecode `json:"start"`
	End   SceneTimecode `json:"end"`
}

// SceneRecord is the persisted, ordered list of scene boundaries of one
// source video.
type SceneRecord []SceneEntry

func NewSceneTimecode(tc timecode.Timecode) SceneTimecode {
	return SceneTimecode{
		Timecode:  tc.String(),
		Seconds:   tc.Seconds(),
		Frames:    tc.Frames,
		Framerate: tc.Framerate,
	}
}

func NewSceneEntry(r timecode.Range) SceneEntry {
	return SceneEntry{Start: NewSceneTimecode(r.Start), End: NewSceneTimecode(r.End)}
}

func (e SceneEntry) Duration() float64 {
	return e.End.Seconds - e.Start.Seconds
}

// Position rebuilds the position from its timecode string, which is the
// authoritative field; a missing frame rate falls back to the default.
func (t SceneTimecode) Position() (timecode.Timecode, error) {
	return timecode.Parse(t.Timecode, t.Framerate)
}

func (e SceneEntry) Range() (timecode.Range, error) {
	start, err := e.Start.Position()
	if err != nil {
		return timecode.Range{}, fmt.Errorf("start: %w", err)
	}
	end, err := e.End.Position()
	if err != nil {
		return timecode.Range{}, fmt.Errorf("end: %w", err)
	}
	return timecode.Range{Start: start, End: end}, nil
}

func (r SceneRecord) Ranges() ([]timecode.Range, error) {
	ranges := make([]timecode.Range, 0, len(r))
	for i, e := range r {
		rg, err := e.Range()
		if err != nil {
			return nil, fmt.Errorf("scene %d: %w", i+1, err)
		}
		ranges = append(ranges, rg)
	}
	return ranges, nil
}
