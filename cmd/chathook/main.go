package main

import (
	"os"

	"github.com/mtewold/chathook/cmd/chathook/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
