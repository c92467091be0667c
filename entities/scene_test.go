package entities

import (
	"encoding/json"
	"scene-worker/pkg/timecode"
	"strings"
	"testing"
)

func TestSceneEntry_JSONShape(t *testing.T) {
	r := timecode.Range{Start: timecode.FromFrames(0, 30), End: timecode.FromFrames(4500, 30)}
	b, err := json.Marshal(SceneRecord{NewSceneEntry(r)})
	if err != nil {
		t.Fatal(err)
	}
	want := `[{"start":{"timecode":"00:00:00.000","seconds":0,"frames":0,"framerate":30},"end":{"timecode":"00:02:30.000","seconds":150,"frames":4500,"framerate":30}}]`
	if string(b) != want {
		t.Errorf("got  %s\nwant %s", b, want)
	}
}

func TestSceneRecord_Ranges(t *testing.T) {
	var record SceneRecord
	data := `[{"start":{"timecode":"00:01:00.000","framerate":25},"end":{"timecode":"00:04:00.500","framerate":25}}]`
	if err := json.Unmarshal([]byte(data), &record); err != nil {
		t.Fatal(err)
	}
	ranges, err := record.Ranges()
	if err != nil {
		t.Fatalf("Ranges: %v", err)
	}
	if ranges[0].Start.Frames != 1500 || ranges[0].End.Frames != 6013 {
		t.Errorf("frames: %+v", ranges[0])
	}

	record[0].End.Timecode = "4:00"
	if _, err := record.Ranges(); err == nil || !strings.Contains(err.Error(), "scene 1") {
		t.Errorf("expected scene 1 error, got %v", err)
	}
}

func TestSceneTimecode_DefaultFramerate(t *testing.T) {
	tc, err := SceneTimecode{Timecode: "00:00:10.000"}.Position()
	if err != nil {
		t.Fatal(err)
	}
	if tc.Framerate != timecode.DefaultFramerate || tc.Frames != 300 {
		t.Errorf("got %+v", tc)
	}
}
