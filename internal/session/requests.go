package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/rbright/echonews/internal/dispatch"
	"github.com/rbright/echonews/internal/ipc"
	"github.com/rbright/echonews/internal/news"
	"github.com/rbright/echonews/internal/quiz"
)

const (
	KindLatest  dispatch.Kind = "latest"
	KindPodcast dispatch.Kind = "podcast"
)

const clearInterests = "none"

// onRequest serves one command. Commands that fetch reply once their job
// finishes; the rest reply immediately. It reports whether the session
// should end.
func (c *Controller) onRequest(r request) bool {
	req := r.req
	state := string(c.State())

	switch req.Command {
	case "status":
		r.reply <- c.status()
	case "ask":
		text := requestText(req)
		if text == "" {
			r.reply <- ipc.Failure(state, "ask requires text")
			return false
		}
		if query, ok := c.triggers.Detect(text); ok {
			text = query
		}
		c.sess.Record(SpeakerUser, text)
		c.submit(job{run: c.dispatchQuery(text), waiter: r.reply})
	case "latest":
		c.sess.Record(SpeakerUser, "latest news")
		c.submit(job{run: c.latest, waiter: r.reply})
	case "topic":
		topic := requestText(req)
		if topic == "" {
			r.reply <- ipc.Failure(state, "topic requires a name")
			return false
		}
		c.sess.Record(SpeakerUser, topic)
		c.submit(job{run: c.search(topic), waiter: r.reply})
	case "podcast":
		c.sess.Record(SpeakerUser, "podcast")
		c.submit(job{run: c.podcast, waiter: r.reply})
	case "interests":
		r.reply <- c.interests(req.Args)
	case "quiz":
		r.reply <- c.buildQuiz()
	case "bookmark":
		r.reply <- c.bookmark()
	case "bookmarks":
		r.reply <- c.listBookmarks()
	case "transcript":
		r.reply <- c.listTranscript()
	case "skip":
		if !c.playing {
			r.reply <- ipc.Failure(state, "nothing is playing")
			return false
		}
		c.stopPlayback()
		c.advance()
		r.reply <- ipc.Response{OK: true, State: string(c.State()), Message: "skipped"}
	case "stop":
		c.cancelAll()
		r.reply <- ipc.Response{OK: true, State: string(c.State()), Message: "stopped"}
	case "copy":
		r.reply <- c.copyReply()
	case "quit":
		c.cancelAll()
		r.reply <- ipc.Response{OK: true, State: string(c.State()), Message: "session ending"}
		return true
	default:
		r.reply <- ipc.Failure(state, fmt.Sprintf("unknown command: %s", req.Command))
	}
	return false
}

func requestText(req ipc.Request) string {
	if text := strings.TrimSpace(req.Text); text != "" {
		return text
	}
	return strings.TrimSpace(strings.Join(req.Args, " "))
}

func (c *Controller) latest(ctx context.Context) dispatch.Reply {
	res := c.feed.Latest(ctx)
	return dispatch.Reply{Kind: KindLatest, Text: res.Text, Articles: res.Articles}
}

func (c *Controller) search(topic string) func(context.Context) dispatch.Reply {
	return func(ctx context.Context) dispatch.Reply {
		res := c.feed.Search(ctx, topic)
		return dispatch.Reply{Kind: dispatch.KindTopic, Query: topic, Text: res.Text, Articles: res.Articles}
	}
}

// podcast narrates only the headlines of the latest articles.
func (c *Controller) podcast(ctx context.Context) dispatch.Reply {
	res := c.feed.Latest(ctx)
	if len(res.Articles) == 0 {
		return dispatch.Reply{Kind: KindPodcast, Text: res.Text}
	}
	return dispatch.Reply{Kind: KindPodcast, Text: news.Headlines(res.Articles), Articles: res.Articles}
}

func (c *Controller) status() ipc.Response {
	state := string(c.State())
	interests := c.sess.Interests()
	shown := "none"
	if len(interests) > 0 {
		shown = strings.Join(interests, ", ")
	}

	entries := []ipc.Entry{
		{Label: "session", Text: c.sess.ID},
		{Label: "state", Text: state},
		{Label: "interests", Text: shown},
		{Label: "bookmarks", Text: fmt.Sprint(len(c.sess.Bookmarks()))},
	}
	if paused, ok := c.sess.Paused(); ok {
		entries = append(entries, ipc.Entry{Label: "paused", Text: paused})
	}
	if err := c.sess.LastErr(); err != nil {
		entries = append(entries, ipc.Entry{Label: "last error", Text: err.Error()})
	}
	return ipc.Response{OK: true, State: state, Message: "status", Text: c.sess.Pending(), Entries: entries}
}

func (c *Controller) interests(args []string) ipc.Response {
	state := string(c.State())
	if len(args) > 0 {
		names := args
		if len(args) == 1 && strings.EqualFold(args[0], clearInterests) {
			names = nil
		}
		if _, err := c.sess.SetInterests(names); err != nil {
			return ipc.Failure(state, err.Error())
		}
		c.logger.Info("interests updated", "interests", c.sess.Interests())
	}

	selected := c.sess.Interests()
	resp := ipc.Response{OK: true, State: state, Message: "interests", Entries: topicEntries(selected)}
	if len(selected) == 0 {
		resp.Text = news.MsgSelectInterests
	}
	return resp
}

func topicEntries(names []string) []ipc.Entry {
	entries := make([]ipc.Entry, 0, len(names))
	for _, name := range names {
		topic, _ := news.LookupTopic(name)
		entries = append(entries, ipc.Entry{Label: strings.TrimSpace(topic.Icon + " " + name), Text: topic.Description})
	}
	return entries
}

func (c *Controller) buildQuiz() ipc.Response {
	state := string(c.State())
	articles := c.sess.Articles()
	if len(articles) == 0 {
		return ipc.Failure(state, "no articles yet; ask for some news first")
	}

	questions := c.quiz.Build(articles)
	entries := make([]ipc.Entry, 0, len(questions))
	for i, q := range questions {
		entries = append(entries, ipc.Entry{Label: fmt.Sprintf("answer %d", i+1), Text: q.Answer})
	}
	return ipc.Response{OK: true, State: state, Message: "quiz", Text: quiz.Format(questions), Entries: entries}
}

func (c *Controller) bookmark() ipc.Response {
	state := string(c.State())
	b, added, err := c.sess.BookmarkLatest()
	if err != nil {
		return ipc.Failure(state, err.Error())
	}
	message := "bookmarked"
	if !added {
		message = "already bookmarked"
	}
	return ipc.Response{OK: true, State: state, Message: message, Entries: []ipc.Entry{{Label: b.Title, Text: b.Description}}}
}

func (c *Controller) listBookmarks() ipc.Response {
	bookmarks := c.sess.Bookmarks()
	entries := make([]ipc.Entry, 0, len(bookmarks))
	for _, b := range bookmarks {
		entries = append(entries, ipc.Entry{Label: b.Title, Text: b.Description})
	}
	return ipc.Response{OK: true, State: string(c.State()), Message: "bookmarks", Entries: entries}
}

func (c *Controller) listTranscript() ipc.Response {
	transcript := c.sess.Transcript()
	entries := make([]ipc.Entry, 0, len(transcript))
	for _, e := range transcript {
		entries = append(entries, ipc.Entry{Label: string(e.Speaker), Text: e.Text})
	}
	return ipc.Response{OK: true, State: string(c.State()), Message: "transcript", Entries: entries}
}

func (c *Controller) copyReply() ipc.Response {
	state := string(c.State())
	text := c.sess.LastReply().Text
	if strings.TrimSpace(text) == "" {
		return ipc.Failure(state, "nothing to copy yet")
	}
	if c.clipboard == nil {
		return ipc.Failure(state, "clipboard is not configured")
	}
	if err := c.clipboard.Copy(c.work, text); err != nil {
		c.logger.Warn("copy failed", "error", err.Error())
		return ipc.Failure(state, err.Error())
	}
	return ipc.Response{OK: true, State: state, Message: "copied"}
}
