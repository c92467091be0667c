package service

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// Folder is a configured root directory holding source videos directly and
// their scene records under scenes/.
type Folder struct {
	Name string
	Path string
}

func (f Folder) ScenesDir() string {
	return filepath.Join(f.Path, "scenes")
}

func (f Folder) AudioDir() string {
	return filepath.Join(f.Path, "audio")
}

var splitOutputStem = regexp.MustCompile(`^(.+)-(\d{3})$`)

// IsSplitOutput reports whether name follows the split output convention
// <base>-NNN.<ext>. Such files are never treated as source videos.
func IsSplitOutput(name string) bool {
	return splitOutputStem.MatchString(stem(name))
}

// ParseSplitOutput extracts the source base name and ordinal of a split
// output with extension ext.
func ParseSplitOutput(name, ext string) (base string, ordinal int, ok bool) {
	if !hasExt(name, ext) {
		return "", 0, false
	}
	m := splitOutputStem.FindStringSubmatch(stem(name))
	if m == nil {
		return "", 0, false
	}
	ordinal, _ = strconv.Atoi(m[2])
	if ordinal < 1 {
		return "", 0, false
	}
	return m[1], ordinal, true
}

func SplitOutputName(base string, ordinal int, ext string) string {
	return base + "-" + strconv.FormatInt(int64(ordinal)+1000, 10)[1:] + ext
}

// hasExt matches the extension exactly: movie.MP4 is not a .mp4 video.
func hasExt(name, ext string) bool {
	return filepath.Ext(name) == ext
}

func stem(name string) string {
	return strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
}
