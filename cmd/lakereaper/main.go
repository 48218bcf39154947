package main

import (
	"os"

	"github.com/lakeops/lakereaper/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
