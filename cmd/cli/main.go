package main

import (
	"os"

	"github.com/koinsera/botadmin/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
