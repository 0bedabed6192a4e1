// Package main provides the entry point for the scholaris CLI.
package main

import (
	"os"

	"github.com/scholaris-ai/scholaris/cmd/scholaris/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
