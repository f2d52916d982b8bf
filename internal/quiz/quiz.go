// Package quiz builds multiple-choice questions from fetched articles.
package quiz

import (
	"fmt"
	"math/rand/v2"
	"regexp"
	"strings"
	"time"

	"github.com/rbright/echonews/internal/news"
)

const (
	// DefaultQuestions is how many questions Build produces at most.
	DefaultQuestions = 3
	maxDistractors   = 3

	PromptEntity = "Which key person/place/number is mentioned in today's news?"
	PromptTopic  = "What is the main topic of one of today's news items?"

	fallbackTopic = "News"
)

var (
	capitalizedWord = regexp.MustCompile(`\b[A-Z][a-z]+\b`)
	fourDigitNumber = regexp.MustCompile(`\b\d{4}\b`)
	monthName       = regexp.MustCompile(`\b(January|February|March|April|May|June|July|August|September|October|November|December)\b`)
)

// Question is one multiple-choice item. Answer is always among Options.
type Question struct {
	Prompt  string
	Options []string
	Answer  string
}

// Generator draws distractors and shuffles options with its own source.
type Generator struct {
	rng   *rand.Rand
	count int
}

// New returns a generator. A nil rng seeds from the clock; count <= 0 uses
// DefaultQuestions.
func New(rng *rand.Rand, count int) *Generator {
	if rng == nil {
		seed := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(seed, seed>>17|1))
	}
	if count <= 0 {
		count = DefaultQuestions
	}
	return &Generator{rng: rng, count: count}
}

// ExtractEntity picks a simple named thing from text: the first capitalized
// word, else a four-digit number, else a month name. Empty when none match.
func ExtractEntity(text string) string {
	if m := capitalizedWord.FindString(text); m != "" {
		return m
	}
	if m := fourDigitNumber.FindString(text); m != "" {
		return m
	}
	return monthName.FindString(text)
}

// Build creates up to the generator's count of questions, one per leading
// article. Entity questions are used when the entity appears in the
// description (or the title when there is none); otherwise the question asks
// for the first word of the title.
func (g *Generator) Build(articles []news.Article) []Question {
	entities := make([]string, len(articles))
	for i, a := range articles {
		entities[i] = ExtractEntity(a.Title + " " + a.Description)
	}

	n := min(g.count, len(articles))
	questions := make([]Question, 0, n)
	for i, a := range articles[:n] {
		body := a.Description
		if body == "" {
			body = a.Title
		}

		if ent := entities[i]; ent != "" && strings.Contains(body, ent) {
			var pool []string
			for j, other := range entities {
				if j != i && other != "" {
					pool = append(pool, other)
				}
			}
			questions = append(questions, g.question(PromptEntity, ent, pool))
			continue
		}

		correct := firstWord(a.Title)
		var pool []string
		for _, other := range articles {
			if other.Title == a.Title || strings.TrimSpace(other.Title) == "" {
				continue
			}
			pool = append(pool, firstWord(other.Title))
		}
		questions = append(questions, g.question(PromptTopic, correct, pool))
	}
	return questions
}

func (g *Generator) question(prompt string, correct string, pool []string) Question {
	pool = distinct(pool, correct)
	picks := g.rng.Perm(len(pool))[:min(maxDistractors, len(pool))]

	options := make([]string, 0, len(picks)+1)
	options = append(options, correct)
	for _, p := range picks {
		options = append(options, pool[p])
	}
	g.rng.Shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
	})
	return Question{Prompt: prompt, Options: options, Answer: correct}
}

// distinct drops repeats and anything equal to exclude, keeping order.
func distinct(items []string, exclude string) []string {
	seen := map[string]struct{}{exclude: {}}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}

func firstWord(title string) string {
	fields := strings.Fields(title)
	if len(fields) == 0 {
		return fallbackTopic
	}
	return fields[0]
}

// Format renders questions as numbered plain text with lettered options.
func Format(questions []Question) string {
	var b strings.Builder
	for i, q := range questions {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%d. %s\n", i+1, q.Prompt)
		for j, opt := range q.Options {
			fmt.Fprintf(&b, "   %c) %s\n", 'A'+j, opt)
		}
	}
	return b.String()
}
