package main

import (
	"os"

	"github.com/wonny/presence/backend/cmd/presence/commands"
)

// main is the entry point for the presence CLI
// ⭐ go run ./cmd/presence [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
