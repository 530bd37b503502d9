package main

import (
	"os"

	"github.com/tunermason/SC/cmd/sc/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
