// Package main is the entry point for price-drop-tracker.
package main

import (
	"os"

	"github.com/brunovale/price-drop-tracker/cmd/price-drop-tracker/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
