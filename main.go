package main

import (
	"os"

	"github.com/sylinko/everywhere-web/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
