package main

import (
	"os"

	"github.com/gep-platform/assignd/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
