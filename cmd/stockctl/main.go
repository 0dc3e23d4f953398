package main

import (
	"os"

	"github.com/jhoicas/stock-ledger/internal/interfaces/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
