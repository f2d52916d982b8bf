package dispatch

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rbright/echonews/internal/news"
	"github.com/rbright/echonews/internal/trigger"
)

type fakeNews struct {
	searched  []string
	interests [][]string
}

func (f *fakeNews) Search(_ context.Context, topic string) news.Result {
	f.searched = append(f.searched, topic)
	return news.Result{Text: "topic:" + topic, Articles: []news.Article{{Title: topic}}}
}

func (f *fakeNews) ForInterests(_ context.Context, interests []string) news.Result {
	f.interests = append(f.interests, interests)
	if len(interests) == 0 {
		return news.Result{Text: news.MsgSelectInterests}
	}
	return news.Result{Text: "interests:" + strings.Join(interests, ",")}
}

type fakeAnswerer struct {
	questions []string
}

func (f *fakeAnswerer) Answer(_ context.Context, question string) string {
	f.questions = append(f.questions, question)
	return "answer:" + question
}

func TestClassify(t *testing.T) {
	c := NewClassifier(DefaultRecencyKeywords)

	tests := []struct {
		input string
		want  Kind
	}{
		{input: "latest technology news", want: KindRecency},
		{input: "what happened TODAY", want: KindRecency},
		{input: "any updates on the election", want: KindRecency},
		{input: "what is quantum computing", want: KindQuestion},
		{input: "Explain inflation", want: KindQuestion},
		{input: "climate summit?", want: KindQuestion},
		{input: "whatever football", want: KindTopic},
		{input: "space exploration", want: KindTopic},
		{input: "", want: KindTopic},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			require.Equal(t, tc.want, c.Classify(tc.input))
		})
	}
}

func TestRecencyClassificationImpliesKeywordSubstring(t *testing.T) {
	c := NewClassifier(DefaultRecencyKeywords)
	inputs := []string{"Current affairs", "recently launched", "newsletter", "sports", "who won", "Today's markets"}

	for _, input := range inputs {
		if c.Classify(input) != KindRecency {
			continue
		}
		found := false
		for _, k := range DefaultRecencyKeywords {
			if strings.Contains(strings.ToLower(input), k) {
				found = true
			}
		}
		require.True(t, found, input)
	}
}

func TestNewClassifierIgnoresBlankKeywords(t *testing.T) {
	c := NewClassifier([]string{"  ", "Breaking"})
	require.Equal(t, KindRecency, c.Classify("breaking story"))
	require.Equal(t, KindTopic, c.Classify("latest thing"))
}

func TestDispatchScenarios(t *testing.T) {
	detector := trigger.New(trigger.DefaultPhrases)

	t.Run("question goes to answerer", func(t *testing.T) {
		src := &fakeNews{}
		qa := &fakeAnswerer{}
		d := New(NewClassifier(DefaultRecencyKeywords), src, qa, nil)

		query, ok := detector.Detect("echo what is quantum computing")
		require.True(t, ok)
		reply := d.Dispatch(context.Background(), query, []string{"Science"})

		require.Equal(t, KindQuestion, reply.Kind)
		require.Equal(t, []string{"what is quantum computing"}, qa.questions)
		require.Equal(t, "answer:what is quantum computing", reply.Text)
		require.Empty(t, src.searched)
	})

	t.Run("recency goes to interests", func(t *testing.T) {
		src := &fakeNews{}
		qa := &fakeAnswerer{}
		d := New(NewClassifier(DefaultRecencyKeywords), src, qa, nil)

		query, ok := detector.Detect("echo latest technology news")
		require.True(t, ok)
		reply := d.Dispatch(context.Background(), query, []string{"Technology", "Space"})

		require.Equal(t, KindRecency, reply.Kind)
		require.Equal(t, [][]string{{"Technology", "Space"}}, src.interests)
		require.Equal(t, "interests:Technology,Space", reply.Text)
		require.Empty(t, qa.questions)
	})

	t.Run("recency without interests asks to select", func(t *testing.T) {
		d := New(NewClassifier(DefaultRecencyKeywords), &fakeNews{}, &fakeAnswerer{}, nil)
		reply := d.Dispatch(context.Background(), "latest", nil)
		require.Equal(t, news.MsgSelectInterests, reply.Text)
	})

	t.Run("topic strips stray punctuation", func(t *testing.T) {
		src := &fakeNews{}
		d := New(NewClassifier(DefaultRecencyKeywords), src, &fakeAnswerer{}, nil)

		query, ok := detector.Detect("Echo, Formula One.")
		require.True(t, ok)
		reply := d.Dispatch(context.Background(), query, nil)

		require.Equal(t, KindTopic, reply.Kind)
		require.Equal(t, []string{"Formula One"}, src.searched)
		require.Len(t, reply.Articles, 1)
	})
}
