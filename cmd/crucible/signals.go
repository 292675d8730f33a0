package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// watchSignals cancels the run on SIGINT or SIGTERM so sessions can record
// unattempted tests and tear their images down. The returned stop releases
// the handler.
func watchSignals(cancel context.CancelFunc) (stop func()) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if _, ok := <-sigChan; ok {
			fmt.Fprintln(os.Stderr, "\nInterrupted, shutting down...")
			cancel()
		}
	}()

	return func() {
		signal.Stop(sigChan)
		close(sigChan)
	}
}
