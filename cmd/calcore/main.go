package main

import (
	"os"

	"github.com/funvibe/calcore/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
