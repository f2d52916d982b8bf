// Package tts turns narration text into playable PCM audio.
package tts

import (
	"regexp"
	"strings"
)

var (
	unspeakable = regexp.MustCompile(`[^\p{L}\p{N}_\s.,;:!?'"-]`)
	spaceRun    = regexp.MustCompile(`\s+`)
)

// CleanText strips emoji, markup and symbols a speech engine would read
// aloud, then collapses whitespace.
func CleanText(text string) string {
	text = unspeakable.ReplaceAllString(text, "")
	return strings.TrimSpace(spaceRun.ReplaceAllString(text, " "))
}
