package main

import (
	"os"

	"github.com/philipp01105/fanlog/cmd/fanlog/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
