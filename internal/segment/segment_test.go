package segment

import (
	"encoding/json"
	"math"
	"reflect"
	"testing"
)

func TestSegmentJSONRoundTrip(t *testing.T) {
	in := Segment{
		StartTime:   120.5,
		EndTime:     150,
		Duration:    29.5,
		Title:       "Amazing Trick Shot!",
		Hook:        "You won't believe what happens next!",
		Description: "A performer lands an incredible trick shot.",
		Platforms:   []string{PlatformTikTok, PlatformInstagramReels},
		Hashtags:    []string{"#trickshot", "#amazing"},
	}
	b, err := json.Marshal(Payload{Segments: []Segment{in}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	items, _ := decoded["segments"].([]any)
	if len(items) != 1 {
		t.Fatalf("segments=%v", decoded["segments"])
	}
	obj, _ := items[0].(map[string]any)

	rep := NewValidator(nil, DefaultPolicy()).Validate("structured_json", []RawCandidate{CandidateFromMap(obj)})
	if len(rep.Segments) != 1 {
		t.Fatalf("rejects=%+v", rep.Rejects)
	}
	out := rep.Segments[0]
	if math.Abs(out.StartTime-in.StartTime) > 1e-9 || math.Abs(out.EndTime-in.EndTime) > 1e-9 || math.Abs(out.Duration-in.Duration) > 1e-9 {
		t.Fatalf("times differ: %+v vs %+v", out, in)
	}
	out.StartTime, out.EndTime, out.Duration = in.StartTime, in.EndTime, in.Duration
	if !reflect.DeepEqual(out, in) {
		t.Fatalf("round trip mismatch:\n got=%+v\nwant=%+v", out, in)
	}
}

func TestCanonicalPlatform(t *testing.T) {
	cases := map[string]string{
		"TikTok":          PlatformTikTok,
		"tik-tok":         PlatformTikTok,
		"YouTube Shorts":  PlatformYouTubeShorts,
		"youtube_shorts":  PlatformYouTubeShorts,
		"Instagram Reels": PlatformInstagramReels,
		"reels":           PlatformInstagramReels,
	}
	for in, want := range cases {
		if got, ok := CanonicalPlatform(in); !ok || got != want {
			t.Fatalf("CanonicalPlatform(%q)=(%q,%v)", in, got, ok)
		}
	}
	if _, ok := CanonicalPlatform("Vine"); ok {
		t.Fatalf("Vine should be unknown")
	}
}

func TestCloneIsDeep(t *testing.T) {
	s := Segment{Platforms: []string{PlatformTikTok}, Hashtags: []string{"#a"}}
	c := s.Clone()
	c.Platforms[0] = "changed"
	c.Hashtags[0] = "changed"
	if s.Platforms[0] != PlatformTikTok || s.Hashtags[0] != "#a" {
		t.Fatalf("clone shares backing arrays")
	}
}
