// cmd/blockout/main.go
//
// This is the entry point for the blockout CLI. Every subcommand loads the
// project's scene document, runs one entry point and saves it back; `tui`
// and `serve` keep a session open instead.

package main

import (
	"os"

	"github.com/kingrea/blockout/cmd/blockout/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
