package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/rbright/echonews/internal/audio"
	"github.com/rbright/echonews/internal/cli"
	"github.com/rbright/echonews/internal/config"
	"github.com/rbright/echonews/internal/indicator"
	"github.com/rbright/echonews/internal/ipc"
	"github.com/rbright/echonews/internal/listener"
	"github.com/rbright/echonews/internal/render"
	"github.com/rbright/echonews/internal/session"
)

// commandListen owns the socket and the microphone until quit or a signal.
func (r Runner) commandListen(ctx context.Context, parsed cli.Parsed, cfg config.Config, logger *slog.Logger) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	ln, err := ipc.Acquire(ctx, socketPath, ipc.AcquireOptions{ProbeTimeout: 180 * time.Millisecond, Retries: 8})
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		if errors.Is(err, ipc.ErrAlreadyRunning) {
			fmt.Fprintln(r.Stderr, "hint: send commands to it, e.g. `echonews ask ...`, or end it with `echonews quit`")
		}
		return 1
	}
	defer func() {
		_ = ln.Close()
		_ = os.Remove(socketPath)
	}()

	printer := render.New(r.Stdout, 0)
	svc, err := buildServices(ctx, cfg, newNarrator(cfg, parsed.NoSpeech, printer, logger), logger)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	transcriber, err := newTranscriber(cfg, logger)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	loop := listener.New(
		listener.Microphone(cfg.Audio.Input, cfg.Audio.Fallback, logger),
		newSegmenter(cfg.Listener),
		transcriber,
		logger,
	)

	var cues indicator.CuePlayer
	if cfg.Indicator.SoundEnable && !parsed.NoSpeech {
		cues = audio.NewPlayer(binaryName + " cues")
	}
	ind := indicator.NewTerminal(cfg.Indicator, r.Stdout, cues, logger)

	sess := session.NewContext(cfg.Interests)
	controller := session.NewController(sess, svc.options(cfg, logger, ind, loop.Err))

	serverCtx, serverCancel := context.WithCancel(ctx)
	defer serverCancel()

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- ipc.Serve(serverCtx, ln, controller)
	}()

	loop.Start(ctx)
	runErr := controller.Run(ctx, loop.Utterances())
	if !loop.Stop(ms(cfg.Listener.StopTimeoutMS)) {
		fmt.Fprintln(r.Stderr, "warning: microphone did not release in time")
	}
	serverCancel()
	if serverErr := <-serverErrCh; serverErr != nil {
		fmt.Fprintf(r.Stderr, "error: ipc server failed: %v\n", serverErr)
		return 1
	}

	logSessionResult(logger, sess, runErr, loop.Err())

	if runErr != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", runErr)
		return 1
	}
	if listenErr := loop.Err(); listenErr != nil {
		fmt.Fprintf(r.Stderr, "error: voice input: %v\n", listenErr)
		return 1
	}
	return 0
}

func logSessionResult(logger *slog.Logger, sess *session.Context, runErr error, listenErr error) {
	if logger == nil {
		return
	}
	finished := time.Now()
	fields := []any{
		"session_id", sess.ID,
		"started_at", sess.Started.Format(time.RFC3339Nano),
		"finished_at", finished.Format(time.RFC3339Nano),
		"duration_ms", finished.Sub(sess.Started).Milliseconds(),
		"transcript_entries", len(sess.Transcript()),
		"bookmarks", len(sess.Bookmarks()),
		"interests", sess.Interests(),
	}

	if err := errors.Join(runErr, listenErr); err != nil {
		logger.Error("session failed", append(fields, "error", err.Error())...)
		return
	}
	logger.Info("session complete", fields...)
}
