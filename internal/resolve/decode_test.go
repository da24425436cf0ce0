package resolve

import (
	"errors"
	"testing"

	"github.com/yungbote/clipfinder/internal/segment"
)

func TestStructuredDecoderErrors(t *testing.T) {
	cases := []struct {
		name string
		text string
		kind DecodeKind
	}{
		{"syntax", `{"segments": [`, DecodeSyntax},
		{"trailing comma", `{"segments": [],}`, DecodeSyntax},
		{"array root", `[{"start_time": 1}]`, DecodeStructure},
		{"missing key", `{"clips": []}`, DecodeStructure},
		{"segments not array", `{"segments": {"start_time": 1}}`, DecodeStructure},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := StructuredDecoder{}.Extract(tc.text)
			var de *DecodeError
			if !errors.As(err, &de) {
				t.Fatalf("err=%v, want *DecodeError", err)
			}
			if de.Kind != tc.kind {
				t.Fatalf("kind=%s, want %s", de.Kind, tc.kind)
			}
			if !errors.Is(err, ErrDecode) {
				t.Fatalf("errors.Is(ErrDecode) should hold")
			}
		})
	}
}

func TestStructuredDecoderCandidates(t *testing.T) {
	ext, err := StructuredDecoder{}.Extract(`{"segments":[{"Start Time":"4","title":"x","extra":true}, 7, {"end_time":9}]}`)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(ext.Candidates) != 3 {
		t.Fatalf("candidates=%d, want 3", len(ext.Candidates))
	}
	if got := ext.Candidates[0].Keys(); len(got) != 2 || got[0] != segment.KeyStart || got[1] != segment.KeyTitle {
		t.Fatalf("keys=%v", got)
	}
	if ext.Candidates[1].Len() != 0 {
		t.Fatalf("non-object element should become an empty candidate")
	}
	if len(ext.Issues) != 1 {
		t.Fatalf("issues=%+v", ext.Issues)
	}

	empty, err := StructuredDecoder{}.Extract(`{"segments":[]}`)
	if err != nil || len(empty.Candidates) != 0 {
		t.Fatalf("empty segments: %+v, %v", empty, err)
	}
}
