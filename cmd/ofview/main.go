package main

import (
	"os"

	"github.com/ofview/ofview/internal/cli"
)

func main() {
	code := cli.Run(os.Args[1:])
	os.Exit(code)
}
