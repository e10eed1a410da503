package main

import (
	"os"

	"github.com/spigell/part-recommender/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
