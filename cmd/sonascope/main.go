package main

import (
	"os"

	"github.com/RMahshie/sonascope/cmd/sonascope/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
