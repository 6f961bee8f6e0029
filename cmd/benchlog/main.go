// Package main is the benchlog command.
package main

import (
	"os"

	"github.com/pterm/pterm"

	"go.viam.com/benchlog/cli"
)

func main() {
	app := cli.NewApp(os.Stdout, os.Stderr)
	if err := app.Run(os.Args); err != nil {
		pterm.Error.WithWriter(os.Stderr).Println(err)
		os.Exit(1)
	}
}
