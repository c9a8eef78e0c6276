package main

import (
	"os"

	"github.com/sadopc/ctxstore/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
