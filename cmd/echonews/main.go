// Command echonews is a voice news assistant: it narrates headlines and
// answers spoken questions, pausing and resuming narration around them.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rbright/echonews/internal/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(app.Execute(ctx, os.Args[1:], os.Stdout, os.Stderr))
}
