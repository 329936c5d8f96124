package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/google/subcommands"
	"github.com/sheikh-saqib/money-management-ledger/internal/dashboard"
	"github.com/sheikh-saqib/money-management-ledger/internal/models"
	"github.com/shopspring/decimal"
)

type migrateCmd struct {
	env *env
}

func (*migrateCmd) Name() string     { return "migrate" }
func (*migrateCmd) Synopsis() string { return "apply database migrations" }
func (*migrateCmd) Usage() string {
	return `ledgerctl migrate

  Applies the embedded schema migrations to the database configured by the
  POSTGRES_* environment variables.
`
}
func (*migrateCmd) SetFlags(*flag.FlagSet) {}

func (c *migrateCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if err := c.env.migrate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error migrating database: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Fprintln(c.env.out, "database is up to date")
	return subcommands.ExitSuccess
}

// addAccountCmd holds the flags for the 'add-account' subcommand.
type addAccountCmd struct {
	env      *env
	id       string
	name     string
	kind     string
	balance  string
	inactive bool
}

func (*addAccountCmd) Name() string     { return "add-account" }
func (*addAccountCmd) Synopsis() string { return "open a new account" }
func (*addAccountCmd) Usage() string {
	return `ledgerctl add-account -name <name> -type <type> [-balance <amount>] [-id <id>] [-inactive]

  Opens an account. Types: checking, savings, cash, credit, wallet, investment.
`
}

func (c *addAccountCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.id, "id", "", "account id, generated when empty")
	f.StringVar(&c.name, "name", "", "account name")
	f.StringVar(&c.kind, "type", string(models.AccountChecking), "account type")
	f.StringVar(&c.balance, "balance", "0", "opening balance")
	f.BoolVar(&c.inactive, "inactive", false, "hide the account from the dashboard")
}

func (c *addAccountCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	balance, err := decimal.NewFromString(c.balance)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing balance: %v\n", err)
		return subcommands.ExitUsageError
	}

	s, closeStore, err := c.env.open(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening store: %v\n", err)
		return subcommands.ExitFailure
	}
	defer closeStore()

	account, err := s.CreateAccount(ctx, models.Account{
		ID:      c.id,
		Name:    c.name,
		Type:    models.AccountType(c.kind),
		Balance: balance,
		Active:  !c.inactive,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating account: %v\n", err)
		return subcommands.ExitFailure
	}
	if err := c.env.invalidate(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: dashboard cache not refreshed: %v\n", err)
	}
	fmt.Fprintf(c.env.out, "created account %s (%s)\n", account.ID, account.Name)
	return subcommands.ExitSuccess
}

type accountsCmd struct {
	env *env
}

func (*accountsCmd) Name() string     { return "accounts" }
func (*accountsCmd) Synopsis() string { return "list accounts and balances" }
func (*accountsCmd) Usage() string {
	return `ledgerctl accounts
`
}
func (*accountsCmd) SetFlags(*flag.FlagSet) {}

func (c *accountsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	s, closeStore, err := c.env.open(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening store: %v\n", err)
		return subcommands.ExitFailure
	}
	defer closeStore()

	accounts, err := s.ListAccounts(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error listing accounts: %v\n", err)
		return subcommands.ExitFailure
	}

	w := tabwriter.NewWriter(c.env.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTYPE\tBALANCE\tACTIVE")
	for _, a := range accounts {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\n", a.ID, a.Name, a.Type, a.Balance.StringFixed(2), a.Active)
	}
	w.Flush()
	return subcommands.ExitSuccess
}

type dashboardCmd struct {
	env *env
}

func (*dashboardCmd) Name() string     { return "dashboard" }
func (*dashboardCmd) Synopsis() string { return "print balances, obligations and recent transactions" }
func (*dashboardCmd) Usage() string {
	return `ledgerctl dashboard
`
}
func (*dashboardCmd) SetFlags(*flag.FlagSet) {}

func (c *dashboardCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	s, closeStore, err := c.env.open(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening store: %v\n", err)
		return subcommands.ExitFailure
	}
	defer closeStore()

	d, err := dashboard.NewService(s, nil, 0, nil).Get(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building dashboard: %v\n", err)
		return subcommands.ExitFailure
	}

	w := tabwriter.NewWriter(c.env.out, 0, 4, 2, ' ', 0)
	for _, a := range d.Accounts {
		fmt.Fprintf(w, "%s\t%s\n", a.Name, a.Balance.StringFixed(2))
	}
	fmt.Fprintf(w, "Total\t%s\n", d.TotalBalance.StringFixed(2))
	fmt.Fprintf(w, "To pay\t%s\n", d.AmountToPay.StringFixed(2))
	fmt.Fprintf(w, "To receive\t%s\n", d.AmountToReceive.StringFixed(2))
	w.Flush()

	if len(d.RecentTransactions) > 0 {
		fmt.Fprintln(c.env.out)
		w = tabwriter.NewWriter(c.env.out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "DATE\tTYPE\tFLOW\tAMOUNT\tDESCRIPTION")
		for _, r := range d.RecentTransactions {
			day := "-"
			if r.BillDate != nil {
				day = r.BillDate.Format("2006-01-02")
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", day, r.FinanceType, r.Flow, r.Amount.StringFixed(2), r.Description)
		}
		w.Flush()
	}
	return subcommands.ExitSuccess
}
