package main

import (
	"os"

	"github.com/wonny/ineqlab/cmd/ineq/commands"
)

// main is the entry point for the ineq CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/ineq [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
