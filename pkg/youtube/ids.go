package youtube

import (
	"path/filepath"
	"regexp"
)

var (
	videoIDPattern   = regexp.MustCompile(`^[a-zA-Z0-9_-]{11}$`)
	channelIDPattern = regexp.MustCompile(`^UC[a-zA-Z0-9_-]{22}$`)

	// extractPatterns match the conventions media managers use to embed
	// a video ID in a file name. Tried in order; first match wins.
	extractPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\[([a-zA-Z0-9_-]{11})\]`),                    // [video_id]
		regexp.MustCompile(`\(([a-zA-Z0-9_-]{11})\)`),                    // (video_id)
		regexp.MustCompile(`_([a-zA-Z0-9_-]{11})\.(?:mp4|mkv|avi|webm)`), // _video_id.ext
	}
)

// IsValidVideoID reports whether id has the 11-character video ID shape.
func IsValidVideoID(id string) bool {
	return videoIDPattern.MatchString(id)
}

// IsValidChannelID reports whether id has the UC-prefixed channel ID shape.
func IsValidChannelID(id string) bool {
	return channelIDPattern.MatchString(id)
}

// ExtractVideoID pulls a video ID out of a media file path. It recognizes
// bracketed IDs, parenthesized IDs, and underscore-suffixed IDs before the
// file extension.
func ExtractVideoID(path string) (string, bool) {
	name := filepath.Base(path)
	for _, pattern := range extractPatterns {
		if m := pattern.FindStringSubmatch(name); m != nil {
			return m[1], true
		}
	}
	return "", false
}
