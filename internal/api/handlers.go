package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	interfaces "github.com/sheikh-saqib/money-management-ledger/internal/interfaces"
	"github.com/sheikh-saqib/money-management-ledger/internal/ledger"
	"github.com/sheikh-saqib/money-management-ledger/internal/models"
	"go.uber.org/zap"
)

// TransactionService is the ledger engine as seen by the transport.
type TransactionService interface {
	Create(ctx context.Context, req ledger.CreateRequest) (ledger.CreateResult, error)
	Update(ctx context.Context, id string, req ledger.EntryRequest) (ledger.UpdateResult, error)
	Delete(ctx context.Context, id string) (ledger.DeleteResult, error)
}

// DashboardService returns the overview shown on the home screen.
type DashboardService interface {
	Get(ctx context.Context) (models.Dashboard, error)
	// Invalidate drops any cached overview after a change the ledger engine
	// did not make, such as opening an account.
	Invalidate(ctx context.Context) error
}

// Store is the read side and the account management the transport needs
// next to the ledger engine.
type Store interface {
	interfaces.AccountStore
	interfaces.TransactionReader
}

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var payload transactionPayload
	if !s.decode(w, r, &payload) {
		return
	}

	result, err := s.ledger.Create(r.Context(), payload.createRequest())
	if err != nil {
		s.writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var payload transactionPayload
	if !s.decode(w, r, &payload) {
		return
	}

	result, err := s.ledger.Update(r.Context(), mux.Vars(r)["id"], payload.entryRequest())
	if err != nil {
		s.writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	result, err := s.ledger.Delete(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	txn, err := s.store.GetTransaction(r.Context(), id)
	if errors.Is(err, interfaces.ErrTransactionNotFound) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "transaction " + id + " not found", Field: "txn_id"})
		return
	}
	if err != nil {
		s.internalError(w, "get transaction", err)
		return
	}
	writeJSON(w, http.StatusOK, txn)
}

// handleListTransactions lists every entry, or the entries of one financial
// event when fin_id is given.
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	var (
		txns []models.Transaction
		err  error
	)
	if finID := r.URL.Query().Get("fin_id"); finID != "" {
		txns, err = s.store.TransactionsByFinID(r.Context(), finID)
	} else {
		txns, err = s.store.ListTransactions(r.Context())
	}
	if err != nil {
		s.internalError(w, "list transactions", err)
		return
	}
	if txns == nil {
		txns = []models.Transaction{}
	}
	writeJSON(w, http.StatusOK, txns)
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	account, err := s.store.GetAccount(r.Context(), id)
	if errors.Is(err, interfaces.ErrAccountNotFound) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "account " + id + " not found", Field: "account_id"})
		return
	}
	if err != nil {
		s.internalError(w, "get account", err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.store.ListAccounts(r.Context())
	if err != nil {
		s.internalError(w, "list accounts", err)
		return
	}
	if accounts == nil {
		accounts = []models.Account{}
	}
	writeJSON(w, http.StatusOK, accounts)
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var payload accountPayload
	if !s.decode(w, r, &payload) {
		return
	}

	account, err := s.store.CreateAccount(r.Context(), payload.account())
	if errors.Is(err, models.ErrInvalidAccount) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if err != nil {
		s.internalError(w, "create account", err)
		return
	}
	if err := s.dashboard.Invalidate(r.Context()); err != nil {
		s.logger.Warn("dashboard invalidation failed", zap.String("account_id", account.ID), zap.Error(err))
	}
	writeJSON(w, http.StatusCreated, account)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.dashboard.Get(r.Context())
	if err != nil {
		s.internalError(w, "dashboard", err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return false
	}
	return true
}

// writeLedgerError maps engine failures onto status codes. Store failures
// are logged and reported without detail.
func (s *Server) writeLedgerError(w http.ResponseWriter, err error) {
	var lerr *ledger.Error
	if !errors.As(err, &lerr) {
		s.internalError(w, "ledger", err)
		return
	}

	switch lerr.Kind {
	case ledger.KindValidation:
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: lerr.Msg, Field: lerr.Field})
	case ledger.KindNotFound:
		writeJSON(w, http.StatusNotFound, errorResponse{Error: lerr.Msg, Field: lerr.Field})
	default:
		s.internalError(w, lerr.Op, err)
	}
}

func (s *Server) internalError(w http.ResponseWriter, op string, err error) {
	s.logger.Error("request failed", zap.String("op", op), zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
