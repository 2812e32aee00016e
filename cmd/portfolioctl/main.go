// Command portfolioctl inspects and maintains the portfolio database.
package main

import (
	"context"
	"flag"
	"os"
	"path"
	_ "time/tzdata"

	"github.com/google/subcommands"
	"github.com/username/portfoliotracker/src/config"
	"github.com/username/portfoliotracker/src/logger"
)

var (
	dbPath = flag.String("db", "", "SQLite database path (defaults to DATABASE_PATH)")
	plain  = flag.Bool("plain", false, "print raw markdown instead of rendering it")
)

// Commands lists every portfolioctl subcommand.
var Commands = []subcommands.Command{
	&holdingsCmd{},
	&pricesCmd{},
	&addPriceCmd{},
	&statsCmd{},
	&movementCmd{},
	&captureCmd{},
	&seedCmd{},
	&tokenCmd{},
}

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	for _, c := range Commands {
		commander.Register(c, "")
	}

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
