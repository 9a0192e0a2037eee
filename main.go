package main

import (
	"os"

	"github.com/82deutschmark/MagicalFarmStories/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
