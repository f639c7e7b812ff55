// Package main provides the MiniSQL command-line tool.
package main

import (
	"os"

	"github.com/leapstack-labs/minisql/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
