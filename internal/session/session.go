// Package session runs the narrate, interrupt, answer and resume cycle for
// one listen session.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/rbright/echonews/internal/dispatch"
	"github.com/rbright/echonews/internal/fsm"
	"github.com/rbright/echonews/internal/indicator"
	"github.com/rbright/echonews/internal/ipc"
	"github.com/rbright/echonews/internal/listener"
	"github.com/rbright/echonews/internal/logging"
	"github.com/rbright/echonews/internal/news"
	"github.com/rbright/echonews/internal/quiz"
	"github.com/rbright/echonews/internal/stt"
	"github.com/rbright/echonews/internal/trigger"
)

// Spoken-input failures shown to the user.
const (
	MsgUnrecognized = "Could not understand your speech."
	MsgSTTFailed    = "Error with speech recognition service."
)

// Dispatcher routes a free-form query to news or question answering.
type Dispatcher interface {
	Dispatch(ctx context.Context, query string, interests []string) dispatch.Reply
}

// Feed serves the explicit news commands.
type Feed interface {
	Latest(ctx context.Context) news.Result
	Search(ctx context.Context, topic string) news.Result
}

// Clipboard receives copied replies.
type Clipboard interface {
	Copy(ctx context.Context, text string) error
}

// Options wires a Controller. Dispatcher and Feed are required.
type Options struct {
	Logger     *slog.Logger
	Triggers   *trigger.Detector
	Dispatcher Dispatcher
	Feed       Feed
	Narrator   Narrator
	Indicator  indicator.Controller
	Clipboard  Clipboard
	Quiz       *quiz.Generator
	// Preempt cuts playback when a trigger is heard. Otherwise the answer
	// waits for the current narration to end.
	Preempt bool
	// ListenErr reports why the utterance channel closed.
	ListenErr func() error
}

type request struct {
	req   ipc.Request
	reply chan ipc.Response
}

type narrationDone struct {
	id  int
	err error
}

type job struct {
	trigger bool
	run     func(context.Context) dispatch.Reply
	waiter  chan ipc.Response
}

type jobResult struct {
	job
	epoch int
	gen   int
	reply dispatch.Reply
}

// Controller is an actor: Run owns every field below the channels, and all
// other goroutines talk to it through messages.
type Controller struct {
	sess       *Context
	logger     *slog.Logger
	triggers   *trigger.Detector
	dispatcher Dispatcher
	feed       Feed
	narrator   Narrator
	indicator  indicator.Controller
	clipboard  Clipboard
	quiz       *quiz.Generator
	preempt    bool
	listenErr  func() error

	mu    sync.RWMutex
	state fsm.State

	requests   chan request
	narrations chan narrationDone
	results    chan jobResult
	stopped    chan struct{}
	stopOnce   sync.Once

	root        context.Context
	work        context.Context
	cancelWork  context.CancelFunc
	playing     bool
	narrationID int
	cancelPlay  context.CancelFunc
	queue       []string
	epoch       int
	triggerGen  int
}

// NewController constructs a controller with safe default fallbacks.
func NewController(sess *Context, opts Options) *Controller {
	if opts.Triggers == nil {
		opts.Triggers = trigger.New(trigger.DefaultPhrases)
	}
	if opts.Narrator == nil {
		opts.Narrator = SilentNarrator{}
	}
	if opts.Indicator == nil {
		opts.Indicator = indicator.Noop{}
	}
	if opts.Quiz == nil {
		opts.Quiz = quiz.New(nil, 0)
	}
	if opts.ListenErr == nil {
		opts.ListenErr = func() error { return nil }
	}

	return &Controller{
		sess:       sess,
		logger:     logging.ForSession(opts.Logger, sess.ID),
		triggers:   opts.Triggers,
		dispatcher: opts.Dispatcher,
		feed:       opts.Feed,
		narrator:   opts.Narrator,
		indicator:  opts.Indicator,
		clipboard:  opts.Clipboard,
		quiz:       opts.Quiz,
		preempt:    opts.Preempt,
		listenErr:  opts.ListenErr,
		state:      fsm.StateIdle,
		requests:   make(chan request),
		narrations: make(chan narrationDone),
		results:    make(chan jobResult),
		stopped:    make(chan struct{}),
	}
}

// Session returns the context this controller mutates.
func (c *Controller) Session() *Context {
	return c.sess
}

// State returns the current FSM state snapshot.
func (c *Controller) State() fsm.State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Run serves utterances and requests until ctx is done or a quit request
// arrives. A closed heard channel stops voice input only.
func (c *Controller) Run(ctx context.Context, heard <-chan listener.Utterance) error {
	c.root = ctx
	c.work, c.cancelWork = context.WithCancel(ctx)
	defer func() {
		c.stopPlayback()
		c.cancelWork()
		c.indicator.Hide(context.WithoutCancel(ctx))
		c.stopOnce.Do(func() { close(c.stopped) })
		c.logger.Info("session ended", "transcript_entries", len(c.sess.Transcript()))
	}()

	c.logger.Info("session started", "interests", c.sess.Interests(), "preempt", c.preempt)
	if heard != nil {
		c.indicator.ShowListening(c.work)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case u, ok := <-heard:
			if !ok {
				heard = nil
				c.onListenerClosed()
				continue
			}
			c.onUtterance(u)
		case r := <-c.requests:
			if quit := c.onRequest(r); quit {
				return nil
			}
		case d := <-c.narrations:
			c.onNarrationDone(d)
		case res := <-c.results:
			c.onResult(res)
		}
	}
}

// Handle serves one IPC request through the Run loop.
func (c *Controller) Handle(ctx context.Context, req ipc.Request) ipc.Response {
	r := request{req: req, reply: make(chan ipc.Response, 1)}
	select {
	case c.requests <- r:
	case <-ctx.Done():
		return ipc.Failure(string(c.State()), ctx.Err().Error())
	case <-c.stopped:
		return ipc.Failure(string(c.State()), "session stopped")
	}

	select {
	case resp := <-r.reply:
		return resp
	case <-ctx.Done():
		return ipc.Failure(string(c.State()), ctx.Err().Error())
	case <-c.stopped:
		select {
		case resp := <-r.reply:
			return resp
		default:
			return ipc.Failure(string(c.State()), "session stopped")
		}
	}
}

func (c *Controller) onListenerClosed() {
	err := c.listenErr()
	if err == nil {
		c.logger.Info("listener ended")
		return
	}
	c.sess.SetErr(err)
	c.logger.Error("voice input unavailable", "error", err.Error())
	c.indicator.ShowError(c.work, "Microphone unavailable: "+err.Error())
}

func (c *Controller) onUtterance(u listener.Utterance) {
	if u.Err != nil {
		c.onRecognitionFailed(u.Err)
		return
	}

	query, ok := c.triggers.Detect(u.Text)
	if !ok {
		if c.State() != fsm.StateIdle || c.playing {
			c.logger.Debug("ignoring speech without trigger during narration", "chars", len(u.Text))
			return
		}
		c.sess.Record(SpeakerUser, u.Text)
		c.submit(job{run: c.dispatchQuery(u.Text)})
		return
	}

	c.sess.Record(SpeakerUser, u.Text)
	c.onTrigger(query)
}

// onRecognitionFailed reports a dropped turn. Unrecognized audio during
// narration is the speakers and stays quiet.
func (c *Controller) onRecognitionFailed(err error) {
	if errors.Is(err, stt.ErrUnrecognized) {
		if c.State() != fsm.StateIdle || c.playing {
			return
		}
		c.indicator.ShowError(c.work, MsgUnrecognized)
		return
	}
	c.sess.SetErr(err)
	c.logger.Warn("speech recognition unavailable", "error", err.Error())
	c.indicator.ShowError(c.work, MsgSTTFailed)
}

// onTrigger pauses any narration and dispatches query. The earliest paused
// text survives nested triggers.
func (c *Controller) onTrigger(query string) {
	state := c.State()
	c.logger.Info("trigger heard", "state", string(state), "query", query)
	c.indicator.ShowTrigger(c.work, query)

	switch state {
	case fsm.StateNarrating:
		c.sess.Pause()
		c.transition(fsm.EventInterrupt)
		if c.preempt {
			c.stopPlayback()
		}
	case fsm.StateInterrupted:
		c.sess.Pause()
		c.transition(fsm.EventInterrupt)
	}
	c.submit(job{trigger: true, run: c.dispatchQuery(query)})
}

func (c *Controller) dispatchQuery(query string) func(context.Context) dispatch.Reply {
	interests := c.sess.Interests()
	return func(ctx context.Context) dispatch.Reply {
		return c.dispatcher.Dispatch(ctx, query, interests)
	}
}

// submit runs j off the loop. Trigger jobs supersede earlier trigger jobs.
func (c *Controller) submit(j job) {
	gen := 0
	if j.trigger {
		c.triggerGen++
		gen = c.triggerGen
	}
	epoch := c.epoch
	ctx := c.work

	go func() {
		reply := j.run(ctx)
		select {
		case c.results <- jobResult{job: j, epoch: epoch, gen: gen, reply: reply}:
		case <-c.stopped:
		}
	}()
}

func (c *Controller) onResult(res jobResult) {
	if res.epoch != c.epoch || (res.trigger && res.gen != c.triggerGen) {
		c.logger.Debug("dropping superseded reply", "kind", string(res.reply.Kind))
		if res.waiter != nil {
			res.waiter <- ipc.Failure(string(c.State()), "request was cancelled")
		}
		return
	}

	reply := res.reply
	c.sess.Record(SpeakerEcho, reply.Text)
	c.sess.SetReply(reply)
	c.logger.Info("reply ready", "kind", string(reply.Kind), "articles", len(reply.Articles), "state", string(c.State()))
	c.narrate(reply.Text)

	if res.waiter != nil {
		res.waiter <- ipc.Response{OK: true, State: string(c.State()), Message: string(reply.Kind), Text: reply.Text}
	}
}

// narrate plays text now, or queues it behind the current narration.
func (c *Controller) narrate(text string) {
	if c.State() == fsm.StateInterrupted {
		c.transition(fsm.EventAnswer)
	} else {
		c.transition(fsm.EventSpeak)
	}
	if c.playing {
		c.queue = append(c.queue, text)
		return
	}
	c.startNarration(text)
}

func (c *Controller) startNarration(text string) {
	c.narrationID++
	id := c.narrationID
	ctx, cancel := context.WithCancel(c.work)
	c.cancelPlay = cancel
	c.playing = true
	c.sess.SetPending(text)
	c.indicator.ShowNarrating(ctx, text)

	go func() {
		err := c.narrator.Narrate(ctx, text)
		cancel()
		select {
		case c.narrations <- narrationDone{id: id, err: err}:
		case <-c.stopped:
		}
	}()
}

// stopPlayback cancels the current narration. Its completion is ignored.
func (c *Controller) stopPlayback() {
	if c.cancelPlay != nil {
		c.cancelPlay()
		c.cancelPlay = nil
	}
	c.narrationID++
	c.playing = false
}

func (c *Controller) onNarrationDone(d narrationDone) {
	if d.id != c.narrationID {
		return
	}
	c.playing = false
	c.cancelPlay = nil
	if d.err != nil && !errors.Is(d.err, context.Canceled) {
		c.sess.SetErr(d.err)
		c.logger.Error("narration failed", "error", d.err.Error())
		c.indicator.ShowError(c.work, "Narration failed")
	}
	c.advance()
}

// advance starts whatever plays next: a queued reply, then the paused text
// (exactly once), else the session goes idle. While interrupted it waits for
// the answer.
func (c *Controller) advance() {
	if c.playing || c.State() == fsm.StateInterrupted {
		return
	}

	if len(c.queue) > 0 {
		next := c.queue[0]
		c.queue = c.queue[1:]
		c.transition(fsm.EventSpeak)
		c.startNarration(next)
		return
	}

	if paused, ok := c.sess.TakePaused(); ok {
		c.logger.Info("resuming paused narration", "chars", len(paused))
		c.indicator.ShowResume(c.work)
		c.transition(fsm.EventSpeak)
		c.startNarration(paused)
		return
	}

	if c.State() == fsm.StateNarrating {
		c.transition(fsm.EventFinish)
	}
	c.sess.SetPending("")
	c.indicator.Hide(c.work)
}

// cancelAll drops playback, queued replies, in-flight work and the paused
// text, and returns to idle.
func (c *Controller) cancelAll() {
	c.epoch++
	c.cancelWork()
	c.work, c.cancelWork = context.WithCancel(c.root)
	c.stopPlayback()
	c.queue = nil
	c.sess.ClearPaused()
	c.sess.SetPending("")
	c.transition(fsm.EventCancel)
	c.indicator.Hide(c.work)
}

// transition applies one FSM event. Invalid events are logged and ignored.
func (c *Controller) transition(event fsm.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	next, err := fsm.Transition(c.state, event)
	if err != nil {
		c.logger.Warn("ignored state transition", "error", err.Error())
		return
	}
	if next != c.state {
		c.logger.Debug("state changed", "from", string(c.state), "to", string(next), "event", string(event))
	}
	c.state = next
}
