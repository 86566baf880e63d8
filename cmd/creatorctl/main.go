package main

import (
	"os"

	"BaseCreator/cmd/creatorctl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
