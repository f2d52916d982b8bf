// Package trigger finds the interrupt phrase in a transcribed utterance and
// extracts the query spoken after it.
package trigger

import (
	"regexp"
	"sort"
	"strings"
)

// DefaultQuery is used when the utterance holds nothing beyond the trigger.
const DefaultQuery = "general news"

// DefaultPhrases lists common transcriptions of the wake word.
var DefaultPhrases = []string{"hey echo", "okay echo", "ok echo", "echo", "eko", "ecko"}

type phrase struct {
	text string
	re   *regexp.Regexp
}

// Detector matches phrases most specific first.
type Detector struct {
	phrases []phrase
}

// New builds a Detector. Blank and duplicate phrases are dropped; the rest
// are ordered longest first, keeping configuration order on ties.
func New(phrases []string) *Detector {
	seen := make(map[string]struct{}, len(phrases))
	cleaned := make([]string, 0, len(phrases))
	for _, p := range phrases {
		p = strings.ToLower(strings.Join(strings.Fields(p), " "))
		if p == "" {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		cleaned = append(cleaned, p)
	}
	sort.SliceStable(cleaned, func(i, j int) bool {
		return len(cleaned[i]) > len(cleaned[j])
	})

	d := &Detector{phrases: make([]phrase, 0, len(cleaned))}
	for _, p := range cleaned {
		d.phrases = append(d.phrases, phrase{
			text: p,
			re:   regexp.MustCompile(`(?i)` + regexp.QuoteMeta(p)),
		})
	}
	return d
}

// Phrases returns the match order.
func (d *Detector) Phrases() []string {
	out := make([]string, 0, len(d.phrases))
	for _, p := range d.phrases {
		out = append(out, p.text)
	}
	return out
}

// Detect reports whether text contains a trigger phrase. When it does, the
// first occurrence of that phrase is cut out and the trimmed remainder is
// returned as the query.
func (d *Detector) Detect(text string) (string, bool) {
	for _, p := range d.phrases {
		loc := p.re.FindStringIndex(text)
		if loc == nil {
			continue
		}
		query := strings.TrimSpace(text[:loc[0]] + text[loc[1]:])
		if query == "" {
			query = DefaultQuery
		}
		return query, true
	}
	return "", false
}
