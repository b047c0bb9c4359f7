package main

import (
	"os"

	"hackhub/cmd/hackhub/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
