package main

import (
	"os"

	"github.com/sincaw/arraystream/cmd/arrayctl/cmd"
)

func main() {
	if err := cmd.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
