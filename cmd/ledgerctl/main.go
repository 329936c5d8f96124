// Command ledgerctl administers the ledger database.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	register(commander, newEnv(os.Stdout))

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}

func register(c *subcommands.Commander, e *env) {
	c.Register(&migrateCmd{env: e}, "database")
	c.Register(&addAccountCmd{env: e}, "accounts")
	c.Register(&accountsCmd{env: e}, "accounts")
	c.Register(&dashboardCmd{env: e}, "reports")
}
