package timecode

import (
	"math"
	"testing"
)

func TestString(t *testing.T) {
	cases := []struct {
		frames int64
		fps    float64
		want   string
	}{
		{0, 30, "00:00:00.000"},
		{45, 30, "00:00:01.500"},
		{30 * 3661, 30, "01:01:01.000"},
		{1, 29.97, "00:00:00.033"},
		{1799, 30, "00:00:59.967"},
	}
	for _, c := range cases {
		if got := FromFrames(c.frames, c.fps).String(); got != c.want {
			t.Errorf("FromFrames(%d, %v).String() = %q, want %q", c.frames, c.fps, got, c.want)
		}
	}
}

func TestParse_RoundTrip(t *testing.T) {
	tc, err := Parse("00:02:05.500", 30)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if tc.Frames != 3765 {
		t.Errorf("frames: got %d, want 3765", tc.Frames)
	}
	if got := tc.String(); got != "00:02:05.500" {
		t.Errorf("String: got %q", got)
	}
}

func TestParse_Invalid(t *testing.T) {
	for _, s := range []string{"", "12", "00:61:00", "aa:00:00", "00:00:75.0", "00:00"} {
		if _, err := Parse(s, 30); err == nil {
			t.Errorf("Parse(%q): expected error", s)
		}
	}
}

func TestFromFrames_DefaultFramerate(t *testing.T) {
	tc := FromFrames(60, 0)
	if tc.Framerate != DefaultFramerate {
		t.Errorf("framerate: got %v, want %v", tc.Framerate, DefaultFramerate)
	}
	if tc.Seconds() != 2 {
		t.Errorf("seconds: got %v, want 2", tc.Seconds())
	}
}

func TestRangeDuration(t *testing.T) {
	r := Range{Start: FromSeconds(10, 25), End: FromSeconds(190.48, 25)}
	if got := r.Duration(); math.Abs(got-180.48) > 1e-9 {
		t.Errorf("Duration: got %v, want 180.48", got)
	}
}
