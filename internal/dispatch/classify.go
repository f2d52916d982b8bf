// Package dispatch routes a query to the recency, question, or topic handler.
package dispatch

import (
	"regexp"
	"strings"
)

type Kind string

const (
	KindRecency  Kind = "recency"
	KindQuestion Kind = "question"
	KindTopic    Kind = "topic"
)

// DefaultRecencyKeywords mark a request for up-to-date news.
var DefaultRecencyKeywords = []string{"latest", "recent", "current", "today", "news", "update"}

var interrogative = regexp.MustCompile(`\b(what|who|when|where|why|how|explain|define)\b`)

// Classifier applies the rules in priority order: recency, question, topic.
type Classifier struct {
	recency []string
}

func NewClassifier(recencyKeywords []string) Classifier {
	keywords := make([]string, 0, len(recencyKeywords))
	for _, k := range recencyKeywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			keywords = append(keywords, k)
		}
	}
	return Classifier{recency: keywords}
}

func (c Classifier) Classify(text string) Kind {
	lower := strings.ToLower(text)
	if c.IsRecency(lower) {
		return KindRecency
	}
	if IsQuestion(lower) {
		return KindQuestion
	}
	return KindTopic
}

// IsRecency reports whether any recency keyword is a case-insensitive substring.
func (c Classifier) IsRecency(text string) bool {
	lower := strings.ToLower(text)
	for _, k := range c.recency {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

func IsQuestion(text string) bool {
	return strings.Contains(text, "?") || interrogative.MatchString(strings.ToLower(text))
}
