package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"scene-worker/entities"
	"scene-worker/pkg/fsx"
	"scene-worker/pkg/timecode"
	"sort"
	"strings"
)

// Scene records and their directory are shared with other tools on the host.
const recordPerm os.FileMode = 0o777

var ErrMalformedRecord = errors.New("malformed scene record")

type RecordError struct {
	Path string
	Err  error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("scene record %s: %v", e.Path, e.Err)
}

func (e *RecordError) Unwrap() []error { return []error{ErrMalformedRecord, e.Err} }

// SceneStore persists scene records under <folder>/scenes/<base>.json. Only
// scenes longer than MinSceneSeconds are kept.
type SceneStore struct {
	MinSceneSeconds float64
}

func NewSceneStore(minSceneSeconds float64) *SceneStore {
	return &SceneStore{MinSceneSeconds: minSceneSeconds}
}

func (s *SceneStore) Path(f Folder, base string) string {
	return filepath.Join(f.ScenesDir(), base+".json")
}

// EnsureDir creates the scenes directory of f if it is missing.
func (s *SceneStore) EnsureDir(f Folder) (bool, error) {
	dir := f.ScenesDir()
	if fi, err := os.Stat(dir); err == nil {
		if !fi.IsDir() {
			return false, fmt.Errorf("%s is not a directory", dir)
		}
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, err
	}
	if err := os.MkdirAll(dir, recordPerm); err != nil {
		return false, err
	}
	// MkdirAll is subject to the umask.
	return true, os.Chmod(dir, recordPerm)
}

func (s *SceneStore) Exists(f Folder, base string) (bool, error) {
	_, err := os.Stat(s.Path(f, base))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

func (s *SceneStore) Filter(ranges []timecode.Range) entities.SceneRecord {
	record := make(entities.SceneRecord, 0, len(ranges))
	for _, r := range ranges {
		if r.Duration() > s.MinSceneSeconds {
			record = append(record, entities.NewSceneEntry(r))
		}
	}
	return record
}

// Save filters ranges and writes the record. It never replaces an existing
// record and returns an error wrapping os.ErrExist instead. An empty result
// is still written so the video is not detected again.
func (s *SceneStore) Save(f Folder, base string, ranges []timecode.Range) (entities.SceneRecord, error) {
	record := s.Filter(ranges)
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return nil, err
	}
	if err := fsx.WriteFileNoOverwrite(f.ScenesDir(), base+".json", data, recordPerm); err != nil {
		return nil, err
	}
	return record, nil
}

// Load reads a record and drops entries not longer than MinSceneSeconds, so
// records written with another threshold stay consistent with the splitter.
func (s *SceneStore) Load(path string) (entities.SceneRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raw entities.SceneRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &RecordError{Path: path, Err: err}
	}
	ranges, err := raw.Ranges()
	if err != nil {
		return nil, &RecordError{Path: path, Err: err}
	}

	record := make(entities.SceneRecord, 0, len(raw))
	for i, r := range ranges {
		if r.Duration() > s.MinSceneSeconds {
			record = append(record, raw[i])
		}
	}
	return record, nil
}

// List returns the record paths of f sorted by name. A missing scenes
// directory yields no records.
func (s *SceneStore) List(f Folder) ([]string, error) {
	entries, err := os.ReadDir(f.ScenesDir())
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		paths = append(paths, filepath.Join(f.ScenesDir(), e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}
