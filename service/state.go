package service

import (
	"errors"
	"os"
	"path/filepath"
	"scene-worker/constant"
	"sort"
)

type Output struct {
	Name    string
	Ordinal int
	Size    int64
}

// Snapshot is what a single directory listing says about one source video.
type Snapshot struct {
	Folder       Folder
	Base         string
	Ext          string
	Source       string
	SourceExists bool
	SourceSize   int64
	Record       string
	RecordExists bool
	Outputs      []Output
}

// Inspect lists folder once and collects the source, its scene record and the
// split outputs whose base name is exactly base.
func Inspect(folder Folder, base, ext string, store *SceneStore) (Snapshot, error) {
	snap := Snapshot{
		Folder: folder,
		Base:   base,
		Ext:    ext,
		Source: filepath.Join(folder.Path, base+ext),
		Record: store.Path(folder, base),
	}

	entries, err := os.ReadDir(folder.Path)
	if err != nil {
		return snap, err
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if name == base+ext {
			info, err := e.Info()
			if err != nil {
				return snap, err
			}
			snap.SourceExists = true
			snap.SourceSize = info.Size()
			continue
		}
		b, ordinal, ok := ParseSplitOutput(name, ext)
		if !ok || b != base {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return snap, err
		}
		snap.Outputs = append(snap.Outputs, Output{Name: name, Ordinal: ordinal, Size: info.Size()})
	}
	sort.Slice(snap.Outputs, func(i, j int) bool { return snap.Outputs[i].Ordinal < snap.Outputs[j].Ordinal })

	if _, err := os.Stat(snap.Record); err == nil {
		snap.RecordExists = true
	} else if !errors.Is(err, os.ErrNotExist) {
		return snap, err
	}
	return snap, nil
}

// HasOutputWithin reports whether any output with ordinal 1..max exists.
func (s Snapshot) HasOutputWithin(max int) bool {
	for _, o := range s.Outputs {
		if o.Ordinal <= max {
			return true
		}
	}
	return false
}

// State classifies the video given the number of entries in its record.
func (s Snapshot) State(entries int) constant.VideoState {
	switch {
	case IsSplitOutput(s.Base + s.Ext):
		return constant.VideoStateSplitOutput
	case !s.SourceExists:
		return constant.VideoStateArchived
	case !s.RecordExists:
		return constant.VideoStateUnprocessed
	case len(s.Outputs) == 0:
		return constant.VideoStateDetected
	case len(s.Outputs) >= entries:
		return constant.VideoStateFullySplit
	default:
		return constant.VideoStateSplitInProgress
	}
}
