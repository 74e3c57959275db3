// Package main is the entry point for the caravel CLI binary.
package main

import (
	"os"

	"github.com/wyndhblb/caravel/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
