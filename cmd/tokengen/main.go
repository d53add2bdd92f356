package main

import (
	"context"
	"fmt"
	"os"
)

type exitCode int

const (
	exitOK    exitCode = 0
	exitError exitCode = 1
)

func main() {
	os.Exit(int(mainRun()))
}

func mainRun() exitCode {
	f := newFactory(os.Stdout, os.Stderr)

	rootCmd := newCmdRoot(f)
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "tokengen: %s\n", err)
		return exitError
	}
	return exitOK
}
