// Package main is the sandcal command itself.
package main

import (
	"log"
	"os"

	"go.sandcal.dev/sandcal/cli"
)

func main() {
	app := cli.NewApp(os.Stdout)
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
