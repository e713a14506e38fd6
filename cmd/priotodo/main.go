package main

import (
	"context"
	"os"

	"github.com/Makepad-fr/priotodo/internal/cli"
)

func main() {
	os.Exit(cli.Execute(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}
