package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	interfaces "github.com/sheikh-saqib/money-management-ledger/internal/interfaces"
	"github.com/sheikh-saqib/money-management-ledger/internal/models"
	"github.com/shopspring/decimal"
)

// Postgres error codes the store translates.
const (
	codeForeignKeyViolation = "23503"
	codeUniqueViolation     = "23505"
)

// Config holds PostgreSQL connection configuration.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	// StatementTimeout is sent as the statement_timeout run-time parameter.
	// Zero leaves the server default.
	StatementTimeout time.Duration

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DefaultConfig returns default PostgreSQL configuration.
func DefaultConfig() Config {
	return Config{
		Host:             "localhost",
		Port:             5432,
		User:             "postgres",
		Password:         "postgres",
		Database:         "money_management",
		SSLMode:          "disable",
		StatementTimeout: 5 * time.Second,
		MaxOpenConns:     25,
		MaxIdleConns:     5,
		ConnMaxLifetime:  5 * time.Minute,
	}
}

// DSN renders cfg as a lib/pq keyword/value connection string.
func (c Config) DSN() string {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
	if c.StatementTimeout > 0 {
		dsn += fmt.Sprintf(" statement_timeout=%d", c.StatementTimeout.Milliseconds())
	}
	return dsn
}

// Open connects to PostgreSQL, applies the pool settings and pings the server.
func Open(ctx context.Context, cfg Config) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	return db, nil
}

// PostgresLedgerStore persists accounts and ledger entries in PostgreSQL.
// A unit of work is one database transaction; entries are locked with
// SELECT ... FOR UPDATE and balances move with relative updates, so two
// concurrent operations on one account serialize on its row lock.
type PostgresLedgerStore struct {
	db *sql.DB
}

func NewPostgresLedgerStore(db *sql.DB) *PostgresLedgerStore {
	return &PostgresLedgerStore{
		db: db,
	}
}

func (p *PostgresLedgerStore) BeginWork(ctx context.Context) (interfaces.UnitOfWork, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	return &unitOfWork{tx: tx}, nil
}

type unitOfWork struct {
	tx *sql.Tx
}

const transactionColumns = `txn_id, fin_id, bill_date, paid_date, amount, paid_amount, actual_amount,
	flow, finance_type, category_id, subcategory_id, account_id, method_id,
	tags, description, reference_id, notes, created_ts, updated_ts`

func (w *unitOfWork) ReadTransaction(ctx context.Context, id string) (models.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE txn_id = $1 FOR UPDATE`

	txn, err := scanTransaction(w.tx.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Transaction{}, interfaces.ErrTransactionNotFound
	}
	if err != nil {
		return models.Transaction{}, fmt.Errorf("select transaction %s: %w", id, err)
	}
	return txn, nil
}

// WriteTransaction upserts entry. On conflict every column but created_ts is
// replaced.
func (w *unitOfWork) WriteTransaction(ctx context.Context, entry models.Transaction) error {
	const query = `INSERT INTO transactions (` + transactionColumns + `)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)
	ON CONFLICT (txn_id) DO UPDATE SET
		fin_id = EXCLUDED.fin_id,
		bill_date = EXCLUDED.bill_date,
		paid_date = EXCLUDED.paid_date,
		amount = EXCLUDED.amount,
		paid_amount = EXCLUDED.paid_amount,
		actual_amount = EXCLUDED.actual_amount,
		flow = EXCLUDED.flow,
		finance_type = EXCLUDED.finance_type,
		category_id = EXCLUDED.category_id,
		subcategory_id = EXCLUDED.subcategory_id,
		account_id = EXCLUDED.account_id,
		method_id = EXCLUDED.method_id,
		tags = EXCLUDED.tags,
		description = EXCLUDED.description,
		reference_id = EXCLUDED.reference_id,
		notes = EXCLUDED.notes,
		updated_ts = EXCLUDED.updated_ts`

	_, err := w.tx.ExecContext(ctx, query,
		entry.ID,
		entry.FinID,
		nullTime(entry.BillDate),
		nullTime(entry.PaidDate),
		entry.Amount,
		entry.PaidAmount,
		entry.ActualAmount,
		string(entry.Flow),
		string(entry.FinanceType),
		nullString(entry.CategoryID),
		nullString(entry.SubcategoryID),
		entry.AccountID,
		nullString(entry.MethodID),
		nullString(entry.Tags),
		nullString(entry.Description),
		nullString(entry.ReferenceID),
		nullString(entry.Notes),
		entry.CreatedAt,
		entry.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert transaction %s: %w", entry.ID, translate(err))
	}
	return nil
}

func (w *unitOfWork) DeleteTransaction(ctx context.Context, id string) error {
	const query = `DELETE FROM transactions WHERE txn_id = $1`

	res, err := w.tx.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}
	return expectRow(res, interfaces.ErrTransactionNotFound)
}

func (w *unitOfWork) AdjustAccountBalance(ctx context.Context, accountID string, delta decimal.Decimal) error {
	const query = `UPDATE accounts SET balance = balance + $1, updated_ts = now() WHERE account_id = $2`

	res, err := w.tx.ExecContext(ctx, query, delta, accountID)
	if err != nil {
		return fmt.Errorf("update balance of %s: %w", accountID, err)
	}
	return expectRow(res, interfaces.ErrAccountNotFound)
}

// LockAccounts takes the row locks of accountIDs in one statement. The rows
// are locked in account_id order whatever order the ids arrive in.
func (w *unitOfWork) LockAccounts(ctx context.Context, accountIDs []string) error {
	if len(accountIDs) == 0 {
		return nil
	}
	const query = `SELECT account_id FROM accounts WHERE account_id = ANY($1) ORDER BY account_id FOR UPDATE`

	rows, err := w.tx.QueryContext(ctx, query, pq.Array(accountIDs))
	if err != nil {
		return fmt.Errorf("lock accounts: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("lock accounts: %w", err)
	}
	return nil
}

func (w *unitOfWork) Commit() error {
	return w.tx.Commit()
}

func (w *unitOfWork) Rollback() error {
	if err := w.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return err
	}
	return nil
}

func expectRow(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}

// translate maps constraint violations onto the store's sentinel errors.
func translate(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code {
	case codeForeignKeyViolation:
		return fmt.Errorf("%w: %w", interfaces.ErrAccountNotFound, err)
	case codeUniqueViolation:
		return fmt.Errorf("%w: %w", models.ErrInvalidAccount, err)
	}
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (models.Transaction, error) {
	var (
		txn                       models.Transaction
		billDate, paidDate        sql.NullTime
		flow, financeType         string
		category, subcategory     sql.NullString
		method, tags, description sql.NullString
		reference, notes          sql.NullString
	)
	err := row.Scan(
		&txn.ID,
		&txn.FinID,
		&billDate,
		&paidDate,
		&txn.Amount,
		&txn.PaidAmount,
		&txn.ActualAmount,
		&flow,
		&financeType,
		&category,
		&subcategory,
		&txn.AccountID,
		&method,
		&tags,
		&description,
		&reference,
		&notes,
		&txn.CreatedAt,
		&txn.UpdatedAt,
	)
	if err != nil {
		return models.Transaction{}, err
	}

	txn.BillDate = timePtr(billDate)
	txn.PaidDate = timePtr(paidDate)
	txn.Flow = models.Flow(flow)
	txn.FinanceType = models.FinanceType(financeType)
	txn.CategoryID = category.String
	txn.SubcategoryID = subcategory.String
	txn.MethodID = method.String
	txn.Tags = tags.String
	txn.Description = description.String
	txn.ReferenceID = reference.String
	txn.Notes = notes.String
	return txn, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

var (
	_ interfaces.LedgerStore       = (*PostgresLedgerStore)(nil)
	_ interfaces.AccountStore      = (*PostgresLedgerStore)(nil)
	_ interfaces.TransactionReader = (*PostgresLedgerStore)(nil)
	_ interfaces.DashboardReader   = (*PostgresLedgerStore)(nil)
)
