package main

import (
	"os"

	"github.com/phildougherty/hrchat/internal/cmd"
)

var version = "dev"

func main() {
	if err := cmd.NewRootCommand(version).Execute(); err != nil {
		os.Exit(1)
	}
}
