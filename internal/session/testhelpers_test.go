package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rbright/echonews/internal/dispatch"
	"github.com/rbright/echonews/internal/fsm"
	"github.com/rbright/echonews/internal/indicator"
	"github.com/rbright/echonews/internal/ipc"
	"github.com/rbright/echonews/internal/listener"
	"github.com/rbright/echonews/internal/news"
	"github.com/stretchr/testify/require"
)

type playback struct {
	text   string
	ctx    context.Context
	finish chan struct{}
}

// fakeNarrator hands every narration to the test, which decides when it ends.
type fakeNarrator struct {
	started chan *playback
}

func newFakeNarrator() *fakeNarrator {
	return &fakeNarrator{started: make(chan *playback, 16)}
}

func (n *fakeNarrator) Narrate(ctx context.Context, text string) error {
	p := &playback{text: text, ctx: ctx, finish: make(chan struct{})}
	n.started <- p
	select {
	case <-p.finish:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (n *fakeNarrator) next(t *testing.T) *playback {
	t.Helper()
	select {
	case p := <-n.started:
		return p
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for narration")
		return nil
	}
}

func (n *fakeNarrator) requireQuiet(t *testing.T) {
	t.Helper()
	select {
	case p := <-n.started:
		t.Fatalf("unexpected narration: %q", p.text)
	case <-time.After(50 * time.Millisecond):
	}
}

// fakeDispatcher answers from a table. Queries listed in gates block until
// their gate is closed.
type fakeDispatcher struct {
	mu        sync.Mutex
	replies   map[string]dispatch.Reply
	gates     map[string]chan struct{}
	queries   []string
	interests [][]string
}

func (d *fakeDispatcher) Dispatch(ctx context.Context, query string, interests []string) dispatch.Reply {
	d.mu.Lock()
	d.queries = append(d.queries, query)
	d.interests = append(d.interests, interests)
	gate := d.gates[query]
	reply, ok := d.replies[query]
	d.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
		}
	}
	if !ok {
		reply = dispatch.Reply{Kind: dispatch.KindTopic, Query: query, Text: "reply to " + query}
	}
	return reply
}

func (d *fakeDispatcher) calls() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.queries...)
}

type fakeFeed struct {
	latest news.Result
	search map[string]news.Result
}

func (f *fakeFeed) Latest(context.Context) news.Result { return f.latest }

func (f *fakeFeed) Search(_ context.Context, topic string) news.Result {
	if res, ok := f.search[topic]; ok {
		return res
	}
	return news.Result{Text: news.MsgNoTopicNews}
}

type fakeClipboard struct {
	mu     sync.Mutex
	copied []string
	err    error
}

func (f *fakeClipboard) Copy(_ context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.copied = append(f.copied, text)
	return nil
}

type harness struct {
	ctrl     *Controller
	heard    chan listener.Utterance
	narrator *fakeNarrator
	disp     *fakeDispatcher
	finished chan struct{}
	runErr   error
}

func newHarness(t *testing.T, opts Options) *harness {
	t.Helper()

	h := &harness{
		heard:    make(chan listener.Utterance),
		narrator: newFakeNarrator(),
		disp:     &fakeDispatcher{replies: map[string]dispatch.Reply{}, gates: map[string]chan struct{}{}},
		finished: make(chan struct{}),
	}
	if opts.Dispatcher == nil {
		opts.Dispatcher = h.disp
	}
	if opts.Feed == nil {
		opts.Feed = &fakeFeed{}
	}
	if opts.Narrator == nil {
		opts.Narrator = h.narrator
	}
	h.ctrl = NewController(NewContext(nil), opts)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		defer close(h.finished)
		h.runErr = h.ctrl.Run(ctx, h.heard)
	}()
	t.Cleanup(func() {
		cancel()
		<-h.finished
	})
	return h
}

// errorIndicator records the messages passed to ShowError.
type errorIndicator struct {
	indicator.Noop
	mu     sync.Mutex
	errors []string
}

func (i *errorIndicator) ShowError(_ context.Context, message string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.errors = append(i.errors, message)
}

func (i *errorIndicator) shown() []string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return append([]string(nil), i.errors...)
}

func (h *harness) hear(err error) {
	h.heard <- listener.Utterance{At: time.Now(), Err: err}
}

func (h *harness) say(text string) {
	h.heard <- listener.Utterance{Text: text, At: time.Now()}
}

func (h *harness) do(t *testing.T, command string, args ...string) ipc.Response {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return h.ctrl.Handle(ctx, ipc.Request{Command: command, Args: args})
}

func waitForState(t *testing.T, ctrl *Controller, want fsm.State) {
	t.Helper()
	require.Eventually(t, func() bool {
		return ctrl.State() == want
	}, 2*time.Second, 5*time.Millisecond)
}
