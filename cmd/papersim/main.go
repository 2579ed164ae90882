package main

import (
	"os"

	"github.com/papersim/trader/cmd/papersim/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
