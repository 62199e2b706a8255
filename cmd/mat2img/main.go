package main

import (
	"os"

	"github.com/robert-malhotra/mat2img/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
