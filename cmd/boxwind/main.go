// Package main provides the boxwind CLI.
package main

import (
	"os"

	"github.com/leapstack-labs/boxwind/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
