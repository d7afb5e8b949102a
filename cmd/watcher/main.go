package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/iiviie/liveblog-watch/internal/watcher"
)

// Exit codes
const (
	exitOK       = 0
	exitFatal    = 1
	exitDegraded = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCommand().ExecuteContext(ctx)
	stop()
	os.Exit(exitCode(err))
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, watcher.ErrPartialDelivery):
		return exitDegraded
	default:
		var logged *loggedError
		if !errors.As(err, &logged) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return exitFatal
	}
}

// loggedError marks an error that has already been written to the log
type loggedError struct {
	err error
}

func (e *loggedError) Error() string {
	return e.err.Error()
}

func (e *loggedError) Unwrap() error {
	return e.err
}
