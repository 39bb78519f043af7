// Package main provides the RecordSQL command-line interface.
package main

import (
	"os"

	"github.com/leapstack-labs/recordsql/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
