package main

import (
	"os"

	"limpopo-ai/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
