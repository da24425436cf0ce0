package segment

import (
	"encoding/json"
	"math"
	"reflect"
	"testing"
)

func TestRawValueFloat(t *testing.T) {
	cases := []struct {
		in   RawValue
		want float64
		ok   bool
	}{
		{Number(12.5), 12.5, true},
		{String("30"), 30, true},
		{String(" 30s "), 30, true},
		{String("15 seconds"), 15, true},
		{String("1:05"), 65, true},
		{String("1:02:03.5"), 3723.5, true},
		{String("1:0x"), 0, false},
		{String("abc"), 0, false},
		{String(""), 0, false},
		{Number(math.NaN()), 0, false},
		{Strings([]string{"1"}), 0, false},
		{Missing(), 0, false},
	}
	for _, tc := range cases {
		got, ok := tc.in.Float()
		if ok != tc.ok || (ok && got != tc.want) {
			t.Fatalf("Float(%+v)=(%v,%v) want (%v,%v)", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestFromAnyJSONShapes(t *testing.T) {
	var m map[string]any
	if err := json.Unmarshal([]byte(`{"a":1,"b":"x","c":[1,"y"],"d":{"e":1},"f":null,"g":true}`), &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	kinds := map[string]Kind{
		"a": KindNumber,
		"b": KindString,
		"c": KindList,
		"d": KindOther,
		"f": KindMissing,
		"g": KindString,
	}
	for k, want := range kinds {
		if got := FromAny(m[k]).Kind; got != want {
			t.Fatalf("%s kind=%s want=%s", k, got, want)
		}
	}
}

func TestCandidateFromMapNormalisesKeys(t *testing.T) {
	c := CandidateFromMap(map[string]any{
		"Start":       1.0,
		"END":         2.0,
		"title":       "T",
		"Description": "D",
		"extra":       "ignored",
		"tags":        []any{"#x"},
	})
	want := []string{KeyDescription, KeyEnd, KeyHashtags, KeyStart, KeyTitle}
	if got := c.Keys(); !reflect.DeepEqual(got, want) {
		t.Fatalf("keys=%v want=%v", got, want)
	}
}

func TestCandidateFromMapCanonicalWins(t *testing.T) {
	c := CandidateFromMap(map[string]any{
		"title":    "synonym",
		"yt_title": "canonical",
	})
	if s, _ := c.Get(KeyTitle).Text(); s != "canonical" {
		t.Fatalf("title=%q", s)
	}
}

func TestCanonicalKey(t *testing.T) {
	cases := map[string]string{
		"Start Time": KeyStart,
		"start-time": KeyStart,
		"YT Title":   KeyTitle,
		"hashtags":   KeyHashtags,
	}
	for in, want := range cases {
		got, ok := CanonicalKey(in)
		if !ok || got != want {
			t.Fatalf("CanonicalKey(%q)=(%q,%v)", in, got, ok)
		}
	}
	if _, ok := CanonicalKey("mood"); ok {
		t.Fatalf("unexpected known key")
	}
}

func TestTextList(t *testing.T) {
	if got := String("TikTok, Instagram_Reels ,").TextList(); !reflect.DeepEqual(got, []string{"TikTok", "Instagram_Reels"}) {
		t.Fatalf("got=%v", got)
	}
	if got := List(String(" a "), Number(2), RawValue{Kind: KindOther}).TextList(); !reflect.DeepEqual(got, []string{"a", "2"}) {
		t.Fatalf("got=%v", got)
	}
}
