package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/subcommands"
	"github.com/username/portfoliotracker/src/config"
	"github.com/username/portfoliotracker/src/handlers"
	"github.com/username/portfoliotracker/src/security/validation"
)

type tokenCmd struct {
	user string
	ttl  time.Duration
}

func (*tokenCmd) Name() string     { return "token" }
func (*tokenCmd) Synopsis() string { return "issue a bearer token for a user" }
func (*tokenCmd) Usage() string {
	return `portfolioctl token -user <id> [-ttl 24h]

  Signs a token with JWT_SECRET. The API only checks tokens when JWT_SECRET is set.
`
}

func (c *tokenCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.user, "user", "", "user id")
	f.DurationVar(&c.ttl, "ttl", 24*time.Hour, "token lifetime")
}

func (c *tokenCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if err := validation.ValidateUserID(c.user); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	if !config.Cfg.AuthEnabled() {
		fmt.Fprintln(os.Stderr, "Error: JWT_SECRET is not set (or shorter than 32 characters)")
		return subcommands.ExitFailure
	}
	token, err := handlers.IssueToken(config.Cfg.JWTSecret, c.user, c.ttl, time.Now())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error signing token: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Println(token)
	return subcommands.ExitSuccess
}
