package main

import (
	"os"

	"github.com/nilaware/nilify/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
