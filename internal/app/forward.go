package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rbright/echonews/internal/cli"
	"github.com/rbright/echonews/internal/config"
	"github.com/rbright/echonews/internal/fsm"
	"github.com/rbright/echonews/internal/indicator"
	"github.com/rbright/echonews/internal/ipc"
	"github.com/rbright/echonews/internal/news"
	"github.com/rbright/echonews/internal/render"
	"github.com/rbright/echonews/internal/session"
)

const (
	controlTimeout = 3 * time.Second
	// fetchTimeout covers a news fetch or model answer behind the request.
	fetchTimeout = 90 * time.Second
)

// standaloneCommands still work when no listen session is running.
var standaloneCommands = map[cli.Command]struct{}{
	cli.CommandAsk:     {},
	cli.CommandLatest:  {},
	cli.CommandTopic:   {},
	cli.CommandPodcast: {},
}

// commandSession forwards a command to the listen session, falling back to a
// one-shot session for the fetching commands.
func (r Runner) commandSession(ctx context.Context, parsed cli.Parsed, cfg config.Config, logger *slog.Logger) int {
	req := ipc.Request{Command: string(parsed.Command), Args: parsed.Args}

	if socketPath, err := ipc.RuntimeSocketPath(); err == nil {
		resp, handled, err := tryForward(ctx, socketPath, req)
		if handled {
			return r.printResponse(resp, err)
		}
	}

	if parsed.Command == cli.CommandStatus {
		fmt.Fprintln(r.Stdout, string(fsm.StateIdle))
		return 0
	}
	if _, ok := standaloneCommands[parsed.Command]; ok {
		return r.commandStandalone(ctx, parsed, cfg, logger, req)
	}

	fmt.Fprintln(r.Stderr, "error: no active echonews session; start one with `echonews listen`")
	return 1
}

// commandStandalone runs req through a session with no microphone, waits for
// its narration, and exits.
func (r Runner) commandStandalone(ctx context.Context, parsed cli.Parsed, cfg config.Config, logger *slog.Logger, req ipc.Request) int {
	var narrator session.Narrator = session.SilentNarrator{}
	if !parsed.NoSpeech {
		narrator = newNarrator(cfg, false, nil, logger)
	}

	svc, err := buildServices(ctx, cfg, narrator, logger)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	controller := session.NewController(session.NewContext(cfg.Interests), svc.options(cfg, logger, indicator.Noop{}, nil))
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- controller.Run(runCtx, nil) }()
	defer func() {
		cancel()
		<-done
	}()

	resp := controller.Handle(ctx, req)
	code := r.printResponse(resp, responseErr(resp))
	if code == 0 {
		waitIdle(ctx, controller)
	}
	return code
}

func (r Runner) printResponse(resp ipc.Response, err error) int {
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	render.New(r.Stdout, 0).Response(resp)
	return 0
}

// commandTopics lists the catalog, starring the configured interests.
func (r Runner) commandTopics(_ context.Context, cfg config.Config) int {
	render.New(r.Stdout, 0).Topics(news.Catalog, cfg.Interests)
	return 0
}

func waitIdle(ctx context.Context, controller *session.Controller) {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for controller.State() != fsm.StateIdle {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func tryForward(ctx context.Context, socketPath string, req ipc.Request) (ipc.Response, bool, error) {
	resp, err := ipc.Send(ctx, socketPath, req, requestTimeout(req.Command))
	if err == nil {
		return resp, true, responseErr(resp)
	}
	if errors.Is(err, ipc.ErrNoSession) {
		return ipc.Response{}, false, nil
	}
	return ipc.Response{}, true, fmt.Errorf("forward command %q: %w", req.Command, err)
}

func responseErr(resp ipc.Response) error {
	if resp.OK {
		return nil
	}
	return errors.New(resp.Error)
}

func requestTimeout(command string) time.Duration {
	if _, ok := standaloneCommands[cli.Command(command)]; ok {
		return fetchTimeout
	}
	return controlTimeout
}
