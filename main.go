package main

import (
	"os"

	"github.com/mikaelmello/echoping/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
