package ledger

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	interfaces "github.com/sheikh-saqib/money-management-ledger/internal/interfaces"
	"github.com/sheikh-saqib/money-management-ledger/internal/logging"
	"github.com/sheikh-saqib/money-management-ledger/internal/metrics"
	"github.com/sheikh-saqib/money-management-ledger/internal/models"
	"github.com/sheikh-saqib/money-management-ledger/internal/models/events"
	"go.uber.org/zap"
)

const (
	StatusSuccess = "success"
	StatusUpdated = "updated"
	StatusDeleted = "deleted"
)

// CreateResult is returned by a successful Create.
type CreateResult struct {
	Status string   `json:"status"`
	FinID  string   `json:"fin_id"`
	TxnIDs []string `json:"txn_ids"`
}

// UpdateResult is returned by a successful Update.
type UpdateResult struct {
	Status string `json:"status"`
	TxnID  string `json:"txn_id"`
}

// DeleteResult is returned by a successful Delete.
type DeleteResult struct {
	Status string `json:"status"`
	TxnID  string `json:"txn_id"`
}

// Ledger writes ledger entries and keeps every account's cached balance equal
// to the signed sum of the entries that reference it. Each operation runs in
// exactly one unit of work: it either commits completely or leaves the store
// as it found it.
type Ledger struct {
	store     interfaces.LedgerStore
	publisher interfaces.EventPublisher
	topic     string
	metrics   metrics.Recorder
	logger    *logging.Logger
	now       func() time.Time
	newID     func() string
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithPublisher emits a TransactionRecorded event per committed entry to topic.
func WithPublisher(p interfaces.EventPublisher, topic string) Option {
	return func(l *Ledger) {
		l.publisher = p
		if topic != "" {
			l.topic = topic
		}
	}
}

// WithMetrics records operation outcomes and latencies.
func WithMetrics(m metrics.Recorder) Option {
	return func(l *Ledger) { l.metrics = m }
}

// WithLogger sets the logger; the default discards output.
func WithLogger(logger *logging.Logger) Option {
	return func(l *Ledger) { l.logger = logger.Named("ledger") }
}

// WithClock overrides the time source used for entry timestamps.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithIDGenerator overrides how transaction and correlation ids are made.
func WithIDGenerator(newID func() string) Option {
	return func(l *Ledger) { l.newID = newID }
}

// NewLedger creates a Ledger over store.
func NewLedger(store interfaces.LedgerStore, opts ...Option) *Ledger {
	l := &Ledger{
		store:   store,
		topic:   events.Topic,
		metrics: metrics.NoOp{},
		logger:  logging.NewNop(),
		now:     time.Now,
		newID:   func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Create records a new financial event: one entry for an EntryRequest, two
// entries (debit on source, credit on target) for a TransferRequest. All
// entries share one correlation id, either the caller's or a generated one.
func (l *Ledger) Create(ctx context.Context, req CreateRequest) (CreateResult, error) {
	const op = "create"

	var result CreateResult
	err := l.observe(op, func() error {
		finID, legs, err := planCreate(op, req)
		if err != nil {
			return err
		}
		if finID == "" {
			finID = l.newID()
		}

		now := l.now()
		created := make([]models.Transaction, 0, len(legs))
		err = l.inWork(ctx, op, func(uow interfaces.UnitOfWork) error {
			accountIDs := make([]string, 0, len(legs))
			for _, leg := range legs {
				accountIDs = append(accountIDs, leg.AccountID)
			}
			if err := l.lockAccounts(ctx, uow, op, accountIDs...); err != nil {
				return err
			}

			for _, leg := range legs {
				entry := leg.entry(l.newID(), finID, now)
				if err := l.apply(ctx, uow, op, entry); err != nil {
					return err
				}
				created = append(created, entry)
			}
			return nil
		})
		if err != nil {
			return err
		}

		result = CreateResult{Status: StatusSuccess, FinID: finID}
		for _, entry := range created {
			result.TxnIDs = append(result.TxnIDs, entry.ID)
		}
		l.publish(ctx, events.ActionCreated, created...)
		return nil
	})
	return result, err
}

// planCreate validates req and expands it into the entries to write.
func planCreate(op string, req CreateRequest) (string, []EntryRequest, error) {
	switch r := req.(type) {
	case *EntryRequest:
		if r == nil {
			return "", nil, validationError(op, "finance_type", "finance_type is required")
		}
		return planCreate(op, *r)
	case *TransferRequest:
		if r == nil {
			return "", nil, validationError(op, "finance_type", "finance_type is required")
		}
		return planCreate(op, *r)
	case EntryRequest:
		if err := r.validate(op); err != nil {
			return "", nil, err
		}
		if r.FinanceType == models.FinanceTransfer {
			return "", nil, validationError(op, "finance_type", "transfer requires source_account_id and target_account_id")
		}
		return r.FinID, []EntryRequest{r}, nil
	case TransferRequest:
		if err := r.validate(op); err != nil {
			return "", nil, err
		}
		debit, credit := r.Legs()
		return r.FinID, []EntryRequest{debit, credit}, nil
	default:
		return "", nil, validationError(op, "finance_type", "finance_type is required")
	}
}

// Update replaces the entry id with req. The old entry's balance effect is
// reversed on the account it was stored against, and the new effect is applied
// to req.AccountID, which may be a different account.
func (l *Ledger) Update(ctx context.Context, id string, req EntryRequest) (UpdateResult, error) {
	const op = "update"

	var result UpdateResult
	err := l.observe(op, func() error {
		if id == "" {
			return validationError(op, "txn_id", "txn_id is required")
		}
		if err := req.validate(op); err != nil {
			return err
		}

		var updated models.Transaction
		err := l.inWork(ctx, op, func(uow interfaces.UnitOfWork) error {
			existing, err := l.reverse(ctx, uow, op, id, req.AccountID)
			if err != nil {
				return err
			}

			updated = req.entry(existing.ID, existing.FinID, l.now())
			updated.CreatedAt = existing.CreatedAt
			return l.apply(ctx, uow, op, updated)
		})
		if err != nil {
			return err
		}

		result = UpdateResult{Status: StatusUpdated, TxnID: id}
		l.publish(ctx, events.ActionUpdated, updated)
		return nil
	})
	return result, err
}

// Delete removes the entry id after reversing its balance effect.
func (l *Ledger) Delete(ctx context.Context, id string) (DeleteResult, error) {
	const op = "delete"

	var result DeleteResult
	err := l.observe(op, func() error {
		if id == "" {
			return validationError(op, "txn_id", "txn_id is required")
		}

		var removed models.Transaction
		err := l.inWork(ctx, op, func(uow interfaces.UnitOfWork) error {
			existing, err := l.reverse(ctx, uow, op, id)
			if err != nil {
				return err
			}
			if err := uow.DeleteTransaction(ctx, id); err != nil {
				if errors.Is(err, interfaces.ErrTransactionNotFound) {
					return notFoundError(op, id, err)
				}
				return storeError(op, fmt.Errorf("delete transaction %s: %w", id, err))
			}
			removed = existing
			return nil
		})
		if err != nil {
			return err
		}

		result = DeleteResult{Status: StatusDeleted, TxnID: id}
		l.publish(ctx, events.ActionDeleted, removed)
		return nil
	})
	return result, err
}

// apply writes entry and moves its account balance by the entry's delta.
func (l *Ledger) apply(ctx context.Context, uow interfaces.UnitOfWork, op string, entry models.Transaction) error {
	if err := uow.WriteTransaction(ctx, entry); err != nil {
		return accountOrStoreError(op, entry.AccountID, fmt.Errorf("write transaction %s: %w", entry.ID, err))
	}
	if err := uow.AdjustAccountBalance(ctx, entry.AccountID, entry.Delta()); err != nil {
		return accountOrStoreError(op, entry.AccountID, fmt.Errorf("adjust balance of %s: %w", entry.AccountID, err))
	}
	return nil
}

// reverse undoes the balance effect of the stored entry id on the account it
// was stored against and returns that entry. It must run before any
// replacement write in the same unit of work. The stored account and
// alsoLock are locked together before the balance moves.
func (l *Ledger) reverse(ctx context.Context, uow interfaces.UnitOfWork, op, id string, alsoLock ...string) (models.Transaction, error) {
	existing, err := uow.ReadTransaction(ctx, id)
	if err != nil {
		if errors.Is(err, interfaces.ErrTransactionNotFound) {
			return models.Transaction{}, notFoundError(op, id, err)
		}
		return models.Transaction{}, storeError(op, fmt.Errorf("read transaction %s: %w", id, err))
	}
	if err := l.lockAccounts(ctx, uow, op, append(alsoLock, existing.AccountID)...); err != nil {
		return models.Transaction{}, err
	}

	if err := uow.AdjustAccountBalance(ctx, existing.AccountID, existing.Delta().Neg()); err != nil {
		return models.Transaction{}, accountOrStoreError(op, existing.AccountID, fmt.Errorf("reverse balance of %s: %w", existing.AccountID, err))
	}
	return existing, nil
}

// lockAccounts locks every distinct id in sorted order.
func (l *Ledger) lockAccounts(ctx context.Context, uow interfaces.UnitOfWork, op string, ids ...string) error {
	sorted := slices.Compact(slices.Sorted(slices.Values(ids)))
	if err := uow.LockAccounts(ctx, sorted); err != nil {
		return storeError(op, fmt.Errorf("lock accounts %v: %w", sorted, err))
	}
	return nil
}

func accountOrStoreError(op, accountID string, err error) error {
	if errors.Is(err, interfaces.ErrAccountNotFound) {
		return &Error{Kind: KindValidation, Op: op, Field: "account_id", Msg: fmt.Sprintf("account %s does not exist", accountID), Err: err}
	}
	return storeError(op, err)
}

// inWork runs fn inside one unit of work. The work is committed only if fn
// returns nil and rolled back on every other path.
func (l *Ledger) inWork(ctx context.Context, op string, fn func(uow interfaces.UnitOfWork) error) error {
	uow, err := l.store.BeginWork(ctx)
	if err != nil {
		return storeError(op, fmt.Errorf("begin work: %w", err))
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		if rbErr := uow.Rollback(); rbErr != nil {
			l.logger.Error("rollback failed", zap.String("op", op), zap.Error(rbErr))
		}
	}()

	if err := fn(uow); err != nil {
		if KindOf(err) == 0 {
			err = storeError(op, err)
		}
		return err
	}

	if err := uow.Commit(); err != nil {
		return storeError(op, fmt.Errorf("commit: %w", err))
	}
	committed = true
	return nil
}

func (l *Ledger) observe(op string, fn func() error) error {
	start := time.Now()
	err := fn()
	l.metrics.ObserveLedgerOperation(op, outcome(err), time.Since(start))

	if err != nil {
		l.logger.Warn("ledger operation failed",
			zap.String("op", op),
			zap.String("outcome", outcome(err)),
			zap.Error(err),
		)
		return err
	}
	l.logger.Debug("ledger operation committed", zap.String("op", op))
	return nil
}

// publish emits one event per entry. It runs after commit, so failures are
// logged and counted but never returned to the caller.
func (l *Ledger) publish(ctx context.Context, action events.Action, entries ...models.Transaction) {
	if l.publisher == nil {
		return
	}
	for _, entry := range entries {
		event := events.TransactionRecorded{
			Action:      action,
			TxnID:       entry.ID,
			FinID:       entry.FinID,
			AccountID:   entry.AccountID,
			Flow:        string(entry.Flow),
			FinanceType: string(entry.FinanceType),
			Amount:      entry.Amount,
			OccurredAt:  l.now(),
		}
		if err := l.publisher.Publish(ctx, l.topic, event); err != nil {
			l.metrics.IncPublishFailure(l.topic)
			l.logger.Error("publish ledger event",
				zap.String("topic", l.topic),
				zap.String("action", string(action)),
				zap.String("txn_id", entry.ID),
				zap.Error(err),
			)
		}
	}
}
