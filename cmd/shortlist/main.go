package main

import (
	"os"

	"github.com/okian/teammatch/internal/rostertool"
)

func main() {
	if err := rostertool.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
