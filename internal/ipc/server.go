package ipc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"
)

const (
	// requestReadTimeout bounds how long a client may take to send its
	// request. Handling time is not bounded here.
	requestReadTimeout = 2 * time.Second
	responseTimeout    = 2 * time.Second
)

// Handler serves one session request.
type Handler interface {
	Handle(context.Context, Request) Response
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(context.Context, Request) Response

func (f HandlerFunc) Handle(ctx context.Context, req Request) Response {
	return f(ctx, req)
}

// Serve answers one request per connection until ctx is done or ln is
// closed. In-flight requests finish before it returns.
func Serve(ctx context.Context, ln net.Listener, handler Handler) error {
	var wg sync.WaitGroup
	defer wg.Wait()

	stop := context.AfterFunc(ctx, func() { _ = ln.Close() })
	defer stop()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("accept session connection: %w", err)
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			serveConn(ctx, conn, handler)
		}()
	}
}

func serveConn(ctx context.Context, conn net.Conn, handler Handler) {
	defer conn.Close()

	resp := func() Response {
		_ = conn.SetReadDeadline(time.Now().Add(requestReadTimeout))
		var req Request
		if err := json.NewDecoder(conn).Decode(&req); err != nil {
			var syntaxErr *json.SyntaxError
			if errors.As(err, &syntaxErr) {
				return Failure("", fmt.Sprintf("decode request: %v", err))
			}
			return Failure("", fmt.Sprintf("read request: %v", err))
		}
		return handler.Handle(ctx, req)
	}()

	_ = conn.SetWriteDeadline(time.Now().Add(responseTimeout))
	_ = json.NewEncoder(conn).Encode(resp)
}
