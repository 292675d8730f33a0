package main

import (
	"errors"
	"fmt"
	"os"
)

// exitInterrupted is the conventional exit code for a SIGINT-terminated run.
const exitInterrupted = 130

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if errors.Is(err, errInterrupted) {
			os.Exit(exitInterrupted)
		}
		os.Exit(1)
	}
}
