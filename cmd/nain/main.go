// Package main is the entry point for nain, a walking navigation assistant.
//
// Usage:
//
//	nain [flags] <command> [args]
//
// Commands:
//
//	serve    - Run the navigation server (web UI, API, event socket)
//	route    - Compute and print a walking route
//	detect   - Run obstacle detection on an image
//	version  - Show version information
package main

import (
	"fmt"
	"os"

	"github.com/teslashibe/go-nain/cmd/nain/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
