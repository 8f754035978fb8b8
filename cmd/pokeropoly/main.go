package main

import (
	"github.com/alecthomas/kong"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Version kong.VersionFlag `short:"v" help:"Show version"`
	Server  ServerCmd        `cmd:"" help:"Run the relay and lobby server"`
	Play    PlayCmd          `cmd:"" help:"Join a room and play a game"`
	Hand    HandCmd          `cmd:"" help:"Group cards into poker hands and price penalties"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("pokeropoly"),
		kong.Description("Multiplayer board game where every property is a playing card"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
