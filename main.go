package main

import (
	"os"

	"github.com/codado/codado/cli"
	"github.com/codado/codado/cmd"
)

func main() {
	os.Exit(cli.Main(cmd.NewRootCommand(), os.Args[1:], os.Stdout))
}
