package main

import (
	"os"

	"github.com/roach88/hivekeep/internal/cli"
)

// Version information (set via ldflags during build)
var version = "dev"

func main() {
	cli.Version = version
	os.Exit(cli.Execute(os.Args[1:], os.Stdout, os.Stderr))
}
