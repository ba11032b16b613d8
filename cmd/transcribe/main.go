package main

import (
	"os"

	"github.com/twoLoop-40/hwp-transformer/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
