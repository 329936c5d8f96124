package ledger

import (
	"errors"
	"fmt"
)

// Kind classifies why a ledger operation failed.
type Kind int

const (
	// KindValidation means the request was rejected and nothing was written.
	KindValidation Kind = iota + 1
	// KindNotFound means the target transaction does not exist.
	KindNotFound
	// KindStore means the store failed and the whole operation was rolled back.
	KindStore
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindStore:
		return "store"
	default:
		return "unknown"
	}
}

// Sentinels matched by errors.Is against any *Error of the same Kind.
var (
	ErrValidation = errors.New("ledger: validation failed")
	ErrNotFound   = errors.New("ledger: not found")
	ErrStore      = errors.New("ledger: store failure")
)

func (k Kind) sentinel() error {
	switch k {
	case KindValidation:
		return ErrValidation
	case KindNotFound:
		return ErrNotFound
	default:
		return ErrStore
	}
}

// Error is returned by every failing ledger operation.
type Error struct {
	Kind  Kind
	Op    string
	Field string
	Msg   string
	Err   error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Field != "" {
		return fmt.Sprintf("ledger %s: %s (%s)", e.Op, msg, e.Field)
	}
	return fmt.Sprintf("ledger %s: %s", e.Op, msg)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	return target == e.Kind.sentinel()
}

// KindOf returns the Kind of err, or 0 when err is nil or not a ledger error.
func KindOf(err error) Kind {
	var lerr *Error
	if errors.As(err, &lerr) {
		return lerr.Kind
	}
	return 0
}

func validationError(op, field, msg string) error {
	return &Error{Kind: KindValidation, Op: op, Field: field, Msg: msg}
}

func notFoundError(op, id string, err error) error {
	return &Error{Kind: KindNotFound, Op: op, Field: "txn_id", Msg: fmt.Sprintf("transaction %s not found", id), Err: err}
}

func storeError(op string, err error) error {
	return &Error{Kind: KindStore, Op: op, Err: err}
}

// outcome is the metrics label for the result of an operation.
func outcome(err error) string {
	if err == nil {
		return "success"
	}
	if k := KindOf(err); k != 0 {
		return k.String()
	}
	return KindStore.String()
}
