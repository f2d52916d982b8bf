package session

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rbright/echonews/internal/dispatch"
	"github.com/rbright/echonews/internal/news"
)

var (
	ErrUnknownTopic      = errors.New("unknown topic")
	ErrTooManyInterests  = fmt.Errorf("at most %d interests", news.MaxInterests)
	ErrNothingToBookmark = errors.New("nothing has been narrated yet")
)

// Speaker labels a transcript entry.
type Speaker string

const (
	SpeakerUser Speaker = "user"
	SpeakerEcho Speaker = "echo"
)

// Entry is one transcript line.
type Entry struct {
	Speaker Speaker
	Text    string
	At      time.Time
}

// Bookmark is a saved article. Equal bookmarks are stored once.
type Bookmark struct {
	Title       string
	Description string
}

// Context holds everything one listen session knows. It lives only as long
// as the session; nothing is persisted.
type Context struct {
	ID      string
	Started time.Time

	mu         sync.Mutex
	now        func() time.Time
	transcript []Entry
	bookmarks  []Bookmark
	interests  []string
	pending    string
	paused     string
	hasPaused  bool
	lastReply  dispatch.Reply
	articles   []news.Article
	lastErr    error
}

// NewContext starts a session with pre-validated interests.
func NewContext(interests []string) *Context {
	now := time.Now
	return &Context{
		ID:        uuid.NewString(),
		Started:   now(),
		now:       now,
		interests: append([]string(nil), interests...),
	}
}

// Record appends a transcript line. Blank text is ignored.
func (s *Context) Record(speaker Speaker, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transcript = append(s.transcript, Entry{Speaker: speaker, Text: text, At: s.now()})
}

// Transcript returns the conversation so far, oldest first.
func (s *Context) Transcript() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Entry(nil), s.transcript...)
}

// AddBookmark stores b unless an equal bookmark exists. It reports whether b
// was added.
func (s *Context) AddBookmark(b Bookmark) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.bookmarks {
		if existing == b {
			return false
		}
	}
	s.bookmarks = append(s.bookmarks, b)
	return true
}

func (s *Context) Bookmarks() []Bookmark {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Bookmark(nil), s.bookmarks...)
}

// SetInterests replaces the interest list with catalog spellings. Unknown
// names and lists longer than news.MaxInterests are rejected whole.
func (s *Context) SetInterests(names []string) ([]string, error) {
	var (
		out  []string
		seen = make(map[string]struct{}, len(names))
	)
	for _, name := range names {
		topic, ok := news.LookupTopic(name)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownTopic, name)
		}
		if _, dup := seen[topic.Name]; dup {
			continue
		}
		seen[topic.Name] = struct{}{}
		out = append(out, topic.Name)
	}
	if len(out) > news.MaxInterests {
		return nil, fmt.Errorf("%w, got %d", ErrTooManyInterests, len(out))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.interests = out
	return append([]string(nil), out...), nil
}

func (s *Context) Interests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.interests...)
}

// SetPending records the text now being narrated.
func (s *Context) SetPending(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = text
}

func (s *Context) Pending() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// Pause saves the pending text for a later resume. An earlier paused text
// is kept, so nested interrupts resume the original narration.
func (s *Context) Pause() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hasPaused || strings.TrimSpace(s.pending) == "" {
		return false
	}
	s.paused = s.pending
	s.hasPaused = true
	return true
}

// TakePaused returns and clears the paused text.
func (s *Context) TakePaused() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	text, ok := s.paused, s.hasPaused
	s.paused, s.hasPaused = "", false
	return text, ok
}

func (s *Context) Paused() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused, s.hasPaused
}

func (s *Context) ClearPaused() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused, s.hasPaused = "", false
}

// SetReply stores the latest reply. Articles are only replaced when the
// reply carried some, so a question answer does not wipe quiz material.
func (s *Context) SetReply(r dispatch.Reply) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastReply = r
	if len(r.Articles) > 0 {
		s.articles = append([]news.Article(nil), r.Articles...)
	}
}

func (s *Context) LastReply() dispatch.Reply {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastReply
}

// Articles returns the most recently fetched articles.
func (s *Context) Articles() []news.Article {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]news.Article(nil), s.articles...)
}

// BookmarkLatest saves the first article behind the latest reply, or the
// reply text itself when no article backs it.
func (s *Context) BookmarkLatest() (Bookmark, bool, error) {
	reply := s.LastReply()
	var b Bookmark
	switch {
	case len(reply.Articles) > 0:
		a := reply.Articles[0]
		b = Bookmark{Title: a.DisplayTitle(), Description: a.DisplayDescription()}
	case strings.TrimSpace(reply.Text) != "":
		b = Bookmark{Title: strings.TrimSpace(reply.Text)}
	default:
		return Bookmark{}, false, ErrNothingToBookmark
	}
	return b, s.AddBookmark(b), nil
}

// SetErr records the most recent failure. Last writer wins.
func (s *Context) SetErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = err
}

func (s *Context) LastErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}
