package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"testing"

	"github.com/google/subcommands"
	"github.com/sheikh-saqib/money-management-ledger/internal/ledger"
	"github.com/sheikh-saqib/money-management-ledger/internal/models"
	"github.com/sheikh-saqib/money-management-ledger/internal/storage/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEnv(s *memory.MemoryLedgerStore) (*env, *bytes.Buffer) {
	out := &bytes.Buffer{}
	return &env{
		out:     out,
		migrate: func() error { return nil },
		open: func(context.Context) (store, func(), error) {
			return s, func() {}, nil
		},
		invalidate: func(context.Context) error { return nil },
	}, out
}

func execute(t *testing.T, e *env, args ...string) subcommands.ExitStatus {
	t.Helper()
	fs := flag.NewFlagSet("ledgerctl", flag.ContinueOnError)
	commander := subcommands.NewCommander(fs, "ledgerctl")
	register(commander, e)
	require.NoError(t, fs.Parse(args))
	return commander.Execute(context.Background())
}

func TestAddAccountAndList(t *testing.T) {
	s := memory.NewMemoryLedgerStore()
	e, out := testEnv(s)

	status := execute(t, e, "add-account", "-id", "A1", "-name", "Main", "-type", "checking", "-balance", "150.5")
	require.Equal(t, subcommands.ExitSuccess, status)
	assert.Contains(t, out.String(), "created account A1 (Main)")

	account, err := s.GetAccount(context.Background(), "A1")
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("150.5").Equal(account.Balance))
	assert.True(t, account.Active)

	out.Reset()
	require.Equal(t, subcommands.ExitSuccess, execute(t, e, "accounts"))
	assert.Contains(t, out.String(), "150.50")
	assert.Contains(t, out.String(), "Main")
}

func TestAddAccountRejectsBadInput(t *testing.T) {
	e, _ := testEnv(memory.NewMemoryLedgerStore())

	assert.Equal(t, subcommands.ExitUsageError, execute(t, e, "add-account", "-name", "X", "-balance", "lots"))
	assert.Equal(t, subcommands.ExitFailure, execute(t, e, "add-account", "-name", "X", "-type", "mattress"))
}

func TestDashboard(t *testing.T) {
	s := memory.NewMemoryLedgerStore()
	e, out := testEnv(s)
	require.Equal(t, subcommands.ExitSuccess, execute(t, e, "add-account", "-id", "A1", "-name", "Main", "-balance", "100"))

	_, err := ledger.NewLedger(s).Create(context.Background(), ledger.EntryRequest{
		FinanceType: models.FinanceExpense,
		Flow:        models.FlowDebit,
		AccountID:   "A1",
		Amount:      decimal.NewFromInt(30),
		Details:     ledger.Details{Description: "groceries"},
	})
	require.NoError(t, err)

	out.Reset()
	require.Equal(t, subcommands.ExitSuccess, execute(t, e, "dashboard"))
	assert.Contains(t, out.String(), "70.00")
	assert.Contains(t, out.String(), "groceries")
}

func TestMigrate(t *testing.T) {
	e, out := testEnv(memory.NewMemoryLedgerStore())
	require.Equal(t, subcommands.ExitSuccess, execute(t, e, "migrate"))
	assert.Contains(t, out.String(), "up to date")

	e.migrate = func() error { return errors.New("dirty database version 1") }
	assert.Equal(t, subcommands.ExitFailure, execute(t, e, "migrate"))
}

func TestAddAccountDropsCachedDashboard(t *testing.T) {
	e, _ := testEnv(memory.NewMemoryLedgerStore())
	calls := 0
	e.invalidate = func(context.Context) error {
		calls++
		return nil
	}

	require.Equal(t, subcommands.ExitFailure, execute(t, e, "add-account", "-name", "X", "-type", "mattress"))
	assert.Zero(t, calls)

	require.Equal(t, subcommands.ExitSuccess, execute(t, e, "add-account", "-name", "Main"))
	assert.Equal(t, 1, calls)

	e.invalidate = func(context.Context) error { return errors.New("redis down") }
	assert.Equal(t, subcommands.ExitSuccess, execute(t, e, "add-account", "-name", "Spare"),
		"the account is created even when the cache cannot be reached")
}
