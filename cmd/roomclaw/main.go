// Package main is the entry point for the roomclaw CLI.
package main

import (
	"os"

	"github.com/roomclaw/roomclaw/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
