package dispatch

import (
	"context"
	"log/slog"
	"strings"
	"unicode"

	"github.com/rbright/echonews/internal/news"
)

// NewsSource is the subset of the news client the dispatcher needs.
type NewsSource interface {
	Search(ctx context.Context, topic string) news.Result
	ForInterests(ctx context.Context, interests []string) news.Result
}

// Answerer answers a free-text question with free text.
type Answerer interface {
	Answer(ctx context.Context, question string) string
}

// Reply is the text to narrate plus any articles behind it.
type Reply struct {
	Kind     Kind
	Query    string
	Text     string
	Articles []news.Article
}

type Dispatcher struct {
	classifier Classifier
	news       NewsSource
	answerer   Answerer
	logger     *slog.Logger
}

func New(classifier Classifier, source NewsSource, answerer Answerer, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{classifier: classifier, news: source, answerer: answerer, logger: logger}
}

// Dispatch classifies query and runs the matching handler. Every branch
// yields text; failures arrive as human-readable strings.
func (d *Dispatcher) Dispatch(ctx context.Context, query string, interests []string) Reply {
	kind := d.classifier.Classify(query)
	reply := Reply{Kind: kind, Query: query}

	switch kind {
	case KindRecency:
		res := d.news.ForInterests(ctx, interests)
		reply.Text, reply.Articles = res.Text, res.Articles
	case KindQuestion:
		reply.Text = d.answerer.Answer(ctx, query)
	default:
		res := d.news.Search(ctx, topicFromQuery(query))
		reply.Text, reply.Articles = res.Text, res.Articles
	}

	d.log().Debug("query dispatched", "kind", string(kind), "articles", len(reply.Articles))
	return reply
}

func (d *Dispatcher) log() *slog.Logger {
	if d.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return d.logger
}

// topicFromQuery drops punctuation left over from trigger removal, as in
// "echo, sports".
func topicFromQuery(query string) string {
	trimmed := strings.TrimFunc(query, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSpace(r)
	})
	if trimmed == "" {
		return query
	}
	return trimmed
}
