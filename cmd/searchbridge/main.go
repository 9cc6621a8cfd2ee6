package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
)

// CLI is the searchbridge command line.
type CLI struct {
	Env    string `help:"Environment name; selects config/<env>.yaml and the log format." env:"ENV" default:"local"`
	Config string `help:"Explicit config file path (overrides --env lookup)." type:"path" env:"SEARCHBRIDGE_CONFIG"`

	Serve   ServeCmd   `cmd:"" help:"Start the HTTP search gateway" default:"1"`
	Search  SearchCmd  `cmd:"" help:"Run one search against the configured backend and print JSON"`
	Version VersionCmd `cmd:"" help:"Show version information"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("searchbridge"),
		kong.Description("One full-text search API over Meilisearch, Typesense, Redis and bleve"),
		kong.UsageOnError(),
	)
	if err := ctx.Run(&cli); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
