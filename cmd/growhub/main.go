// Package main is the entry point for the growhub service.
package main

import (
	"fmt"
	"os"

	"github.com/growhub/growhub/cmd/growhub/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
