package main

import (
	"os"

	"github.com/hashicorp-forge/contentsearch/internal/cmd"
)

func main() {
	os.Exit(cmd.Main(os.Args))
}
