package segment

import (
	"strings"
)

// Segment is a validated, time-bounded excerpt of a transcript with publishing metadata.
type Segment struct {
	StartTime   float64  `json:"start_time"`
	EndTime     float64  `json:"end_time"`
	Duration    float64  `json:"duration"`
	Title       string   `json:"yt_title"`
	Hook        string   `json:"hook"`
	Description string   `json:"description"`
	Platforms   []string `json:"platforms"`
	Hashtags    []string `json:"hashtags"`
}

// Payload is the structured answer shape the model is asked to produce.
type Payload struct {
	Segments []Segment `json:"segments"`
}

const (
	PlatformTikTok         = "TikTok"
	PlatformYouTubeShorts  = "YouTube_Shorts"
	PlatformInstagramReels = "Instagram_Reels"
)

var supportedPlatforms = []string{PlatformTikTok, PlatformYouTubeShorts, PlatformInstagramReels}

// SupportedPlatforms returns a fresh copy of every platform tag the tool knows about.
func SupportedPlatforms() []string {
	return append([]string(nil), supportedPlatforms...)
}

// CanonicalPlatform maps loose spellings ("youtube shorts", "reels", "tik-tok") onto
// a supported tag. ok is false for tags that are not recognised.
func CanonicalPlatform(tag string) (string, bool) {
	key := strings.ToLower(strings.TrimSpace(tag))
	key = strings.NewReplacer(" ", "", "_", "", "-", "").Replace(key)
	switch key {
	case "tiktok":
		return PlatformTikTok, true
	case "youtubeshorts", "shorts", "ytshorts", "youtube":
		return PlatformYouTubeShorts, true
	case "instagramreels", "reels", "instagram", "igreels":
		return PlatformInstagramReels, true
	}
	return "", false
}

// Clone returns a deep copy so downstream writers can annotate without touching the original.
func (s Segment) Clone() Segment {
	out := s
	out.Platforms = cloneStrings(s.Platforms)
	out.Hashtags = cloneStrings(s.Hashtags)
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
