package postgres

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	interfaces "github.com/sheikh-saqib/money-management-ledger/internal/interfaces"
	"github.com/sheikh-saqib/money-management-ledger/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (*PostgresLedgerStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return NewPostgresLedgerStore(db), mock
}

func q(s string) string { return regexp.QuoteMeta(s) }

var transactionRowColumns = []string{
	"txn_id", "fin_id", "bill_date", "paid_date", "amount", "paid_amount", "actual_amount",
	"flow", "finance_type", "category_id", "subcategory_id", "account_id", "method_id",
	"tags", "description", "reference_id", "notes", "created_ts", "updated_ts",
}

func TestConfigDSN(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Password = "secret"
	assert.Equal(t,
		"host=localhost port=5432 user=postgres password=secret dbname=money_management sslmode=disable statement_timeout=5000",
		cfg.DSN())

	cfg.StatementTimeout = 0
	assert.NotContains(t, cfg.DSN(), "statement_timeout")
}

func TestReadTransaction(t *testing.T) {
	store, mock := newMock(t)
	ctx := context.Background()

	bill := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	created := time.Date(2025, 3, 2, 9, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(q("FROM transactions WHERE txn_id = $1 FOR UPDATE")).
		WithArgs("t1").
		WillReturnRows(sqlmock.NewRows(transactionRowColumns).AddRow(
			"t1", "f1", bill, nil, "30.00", "10", nil,
			"debit", "borrowed", "cat", nil, "A1", nil,
			nil, "loan", nil, nil, created, created,
		))
	mock.ExpectRollback()

	uow, err := store.BeginWork(ctx)
	require.NoError(t, err)
	defer uow.Rollback()

	txn, err := uow.ReadTransaction(ctx, "t1")
	require.NoError(t, err)

	assert.Equal(t, "f1", txn.FinID)
	require.NotNil(t, txn.BillDate)
	assert.True(t, bill.Equal(*txn.BillDate))
	assert.Nil(t, txn.PaidDate)
	assert.True(t, decimal.NewFromInt(30).Equal(txn.Amount))
	assert.True(t, txn.PaidAmount.Valid)
	assert.False(t, txn.ActualAmount.Valid)
	assert.Equal(t, models.FlowDebit, txn.Flow)
	assert.Equal(t, models.FinanceBorrowed, txn.FinanceType)
	assert.Equal(t, "cat", txn.CategoryID)
	assert.Empty(t, txn.SubcategoryID)
	assert.Equal(t, "loan", txn.Description)
	assert.True(t, decimal.NewFromInt(-30).Equal(txn.Delta()))
}

func TestReadTransactionNotFound(t *testing.T) {
	store, mock := newMock(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery(q("FOR UPDATE")).WithArgs("nope").WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	uow, err := store.BeginWork(ctx)
	require.NoError(t, err)

	_, err = uow.ReadTransaction(ctx, "nope")
	assert.ErrorIs(t, err, interfaces.ErrTransactionNotFound)
	require.NoError(t, uow.Rollback())
}

func TestWriteTransactionUpserts(t *testing.T) {
	store, mock := newMock(t)
	ctx := context.Background()

	now := time.Date(2025, 3, 2, 9, 0, 0, 0, time.UTC)
	entry := models.Transaction{
		ID:          "t1",
		FinID:       "f1",
		Amount:      decimal.NewFromInt(25),
		Flow:        models.FlowCredit,
		FinanceType: models.FinanceIncome,
		AccountID:   "A1",
		Description: "salary",
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	mock.ExpectBegin()
	mock.ExpectExec(q("ON CONFLICT (txn_id) DO UPDATE SET")).
		WithArgs(
			"t1", "f1", nil, nil, decimal.NewFromInt(25), nil, nil,
			"credit", "income", nil, nil, "A1", nil,
			nil, "salary", nil, nil, now, now,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	uow, err := store.BeginWork(ctx)
	require.NoError(t, err)
	require.NoError(t, uow.WriteTransaction(ctx, entry))
	require.NoError(t, uow.Commit())
	require.NoError(t, uow.Rollback(), "rollback after commit is a no-op")
}

func TestWriteTransactionUnknownAccount(t *testing.T) {
	store, mock := newMock(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec(q("INSERT INTO transactions")).
		WillReturnError(&pq.Error{Code: codeForeignKeyViolation, Message: "violates foreign key constraint"})
	mock.ExpectRollback()

	uow, err := store.BeginWork(ctx)
	require.NoError(t, err)

	err = uow.WriteTransaction(ctx, models.Transaction{ID: "t1", AccountID: "ghost", Amount: decimal.NewFromInt(1), Flow: models.FlowDebit})
	assert.ErrorIs(t, err, interfaces.ErrAccountNotFound)
	require.NoError(t, uow.Rollback())
}

func TestDeleteTransaction(t *testing.T) {
	store, mock := newMock(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec(q("DELETE FROM transactions WHERE txn_id = $1")).
		WithArgs("t1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q("DELETE FROM transactions WHERE txn_id = $1")).
		WithArgs("t1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	uow, err := store.BeginWork(ctx)
	require.NoError(t, err)

	require.NoError(t, uow.DeleteTransaction(ctx, "t1"))
	assert.ErrorIs(t, uow.DeleteTransaction(ctx, "t1"), interfaces.ErrTransactionNotFound)
	require.NoError(t, uow.Rollback())
}

func TestAdjustAccountBalance(t *testing.T) {
	store, mock := newMock(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec(q("UPDATE accounts SET balance = balance + $1, updated_ts = now() WHERE account_id = $2")).
		WithArgs(decimal.NewFromInt(-30), "A1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q("UPDATE accounts SET balance = balance + $1")).
		WithArgs(decimal.NewFromInt(5), "ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	uow, err := store.BeginWork(ctx)
	require.NoError(t, err)

	require.NoError(t, uow.AdjustAccountBalance(ctx, "A1", decimal.NewFromInt(-30)))
	assert.ErrorIs(t, uow.AdjustAccountBalance(ctx, "ghost", decimal.NewFromInt(5)), interfaces.ErrAccountNotFound)
	require.NoError(t, uow.Rollback())
}

func TestBeginWorkFailure(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectBegin().WillReturnError(errors.New("too many connections"))

	_, err := store.BeginWork(context.Background())
	assert.ErrorContains(t, err, "too many connections")
}

func TestCreateAccount(t *testing.T) {
	store, mock := newMock(t)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(q("INSERT INTO accounts")).
		WithArgs("A1", "Wallet", "cash", decimal.NewFromInt(40), true).
		WillReturnRows(sqlmock.NewRows([]string{"created_ts", "updated_ts"}).AddRow(now, now))

	account, err := store.CreateAccount(context.Background(), models.Account{
		ID: "A1", Name: "Wallet", Type: models.AccountCash, Balance: decimal.NewFromInt(40), Active: true,
	})
	require.NoError(t, err)
	assert.Equal(t, now, account.CreatedAt)
}

func TestCreateAccountRejects(t *testing.T) {
	store, mock := newMock(t)
	ctx := context.Background()

	_, err := store.CreateAccount(ctx, models.Account{ID: "A1", Type: models.AccountCash})
	assert.ErrorIs(t, err, models.ErrInvalidAccount)

	mock.ExpectQuery(q("INSERT INTO accounts")).
		WillReturnError(&pq.Error{Code: codeUniqueViolation})
	_, err = store.CreateAccount(ctx, models.Account{ID: "A1", Name: "Dup", Type: models.AccountCash})
	assert.ErrorIs(t, err, models.ErrInvalidAccount)
}

func TestGetAccount(t *testing.T) {
	store, mock := newMock(t)
	ctx := context.Background()
	now := time.Now()

	cols := []string{"account_id", "account_name", "account_type", "balance", "is_active", "created_ts", "updated_ts"}
	mock.ExpectQuery(q("FROM accounts WHERE account_id = $1")).
		WithArgs("A1").
		WillReturnRows(sqlmock.NewRows(cols).AddRow("A1", "Main", "checking", "12.34", true, now, now))
	mock.ExpectQuery(q("FROM accounts WHERE account_id = $1")).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	account, err := store.GetAccount(ctx, "A1")
	require.NoError(t, err)
	assert.Equal(t, models.AccountChecking, account.Type)
	assert.Equal(t, "12.34", account.Balance.StringFixed(2))

	_, err = store.GetAccount(ctx, "ghost")
	assert.ErrorIs(t, err, interfaces.ErrAccountNotFound)
}

func TestDashboardQueries(t *testing.T) {
	store, mock := newMock(t)
	ctx := context.Background()

	mock.ExpectQuery(q("FROM accounts WHERE is_active ORDER BY account_name")).
		WillReturnRows(sqlmock.NewRows([]string{"account_id", "account_name", "balance"}).
			AddRow("A", "Cash", "50").
			AddRow("B", "Main", "100"))
	mock.ExpectQuery(q("SELECT COALESCE(SUM(balance), 0) FROM accounts WHERE is_active")).
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow("150"))
	mock.ExpectQuery(q("SUM(actual_amount - paid_amount)")).
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow("80"))
	mock.ExpectQuery(q("SUM(paid_amount - actual_amount)")).
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow("35"))

	balances, err := store.ActiveAccountBalances(ctx)
	require.NoError(t, err)
	require.Len(t, balances, 2)
	assert.Equal(t, "Cash", balances[0].Name)

	total, err := store.TotalActiveBalance(ctx)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(150).Equal(total))

	pay, err := store.AmountToPay(ctx)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(80).Equal(pay))

	receive, err := store.AmountToReceive(ctx)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(35).Equal(receive))
}

func TestRecentTransactions(t *testing.T) {
	store, mock := newMock(t)
	bill := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

	cols := []string{"txn_id", "fin_id", "bill_date", "amount", "flow", "finance_type", "description"}
	mock.ExpectQuery(q("ORDER BY bill_date DESC NULLS LAST, created_ts DESC LIMIT $1")).
		WithArgs(20).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("t2", "f2", bill, "10", "debit", "expense", "lunch").
			AddRow("t1", "f1", nil, "5", "credit", "income", nil))

	recent, err := store.RecentTransactions(context.Background(), 20)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "t2", recent[0].TxnID)
	assert.Equal(t, "lunch", recent[0].Description)
	assert.Nil(t, recent[1].BillDate)
	assert.Equal(t, models.FlowCredit, recent[1].Flow)
}

func TestLockAccounts(t *testing.T) {
	store, mock := newMock(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery(q("SELECT account_id FROM accounts WHERE account_id = ANY($1) ORDER BY account_id FOR UPDATE")).
		WithArgs(`{"A1","B1"}`).
		WillReturnRows(sqlmock.NewRows([]string{"account_id"}).AddRow("A1").AddRow("B1"))
	mock.ExpectRollback()

	uow, err := store.BeginWork(ctx)
	require.NoError(t, err)

	require.NoError(t, uow.LockAccounts(ctx, []string{"A1", "B1"}))
	require.NoError(t, uow.LockAccounts(ctx, nil), "no ids, no query")
	require.NoError(t, uow.Rollback())
}

func TestTransactionReaders(t *testing.T) {
	store, mock := newMock(t)
	ctx := context.Background()
	created := time.Date(2025, 3, 2, 9, 0, 0, 0, time.UTC)

	row := func(rows *sqlmock.Rows, id, account, flow string) *sqlmock.Rows {
		return rows.AddRow(id, "move-1", nil, nil, "25", nil, nil,
			flow, "transfer", nil, nil, account, nil,
			nil, nil, nil, nil, created, created)
	}

	mock.ExpectQuery(q("FROM transactions WHERE txn_id = $1")).
		WithArgs("t1").
		WillReturnRows(row(sqlmock.NewRows(transactionRowColumns), "t1", "A1", "debit"))
	mock.ExpectQuery(q("FROM transactions WHERE txn_id = $1")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(q("FROM transactions WHERE fin_id = $1 ORDER BY txn_id")).
		WithArgs("move-1").
		WillReturnRows(row(row(sqlmock.NewRows(transactionRowColumns), "t1", "A1", "debit"), "t2", "B1", "credit"))
	mock.ExpectQuery(q("FROM transactions ORDER BY txn_id")).
		WillReturnRows(sqlmock.NewRows(transactionRowColumns))

	txn, err := store.GetTransaction(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "A1", txn.AccountID)

	_, err = store.GetTransaction(ctx, "missing")
	assert.ErrorIs(t, err, interfaces.ErrTransactionNotFound)

	legs, err := store.TransactionsByFinID(ctx, "move-1")
	require.NoError(t, err)
	require.Len(t, legs, 2)
	assert.Equal(t, models.FlowCredit, legs[1].Flow)
	assert.Equal(t, "B1", legs[1].AccountID)

	all, err := store.ListTransactions(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}
