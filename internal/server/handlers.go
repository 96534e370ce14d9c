package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/vanshika/momoledger/internal/domain"
	"github.com/vanshika/momoledger/internal/export"
	"github.com/vanshika/momoledger/internal/store"
)

const (
	msgEndpointNotFound = "Endpoint not found"
	msgInvalidID        = "Invalid transaction ID"
	msgNotFound         = "Transaction not found"
	msgInvalidJSON      = "Invalid JSON data"
	msgInvalidData      = "Invalid transaction data"
	msgDeleted          = "Transaction deleted"

	exportSegment = "export"
)

// TransactionStore is the persistence the API needs.
type TransactionStore interface {
	List(ctx context.Context, filter store.Filter) ([]domain.Transaction, error)
	Get(ctx context.Context, id int) (domain.Transaction, error)
	Create(ctx context.Context, tx domain.Transaction) (domain.Transaction, error)
	Update(ctx context.Context, id int, tx domain.Transaction) (domain.Transaction, error)
	Delete(ctx context.Context, id int) (domain.Transaction, error)
}

// APIHandlers exposes HTTP handlers for the transactions API.
type APIHandlers struct {
	logger *slog.Logger
	store  TransactionStore
}

// NewAPIHandlers constructs an APIHandlers instance.
func NewAPIHandlers(logger *slog.Logger, st TransactionStore) *APIHandlers {
	return &APIHandlers{
		logger: logger,
		store:  st,
	}
}

func (h *APIHandlers) handleTransactions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listTransactions(w, r)
	case http.MethodPost:
		h.createTransaction(w, r)
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPost)
	}
}

// handleTransaction serves /transactions/{id} and /transactions/export.
func (h *APIHandlers) handleTransaction(w http.ResponseWriter, r *http.Request) {
	segment := strings.TrimPrefix(r.URL.Path, "/transactions/")
	if segment == "" || strings.Contains(segment, "/") {
		writeError(w, http.StatusNotFound, msgEndpointNotFound)
		return
	}

	if segment == exportSegment {
		if r.Method != http.MethodGet {
			methodNotAllowed(w, http.MethodGet)
			return
		}
		h.exportTransactions(w, r)
		return
	}

	id, err := strconv.Atoi(segment)
	if err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidID)
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.getTransaction(w, r, id)
	case http.MethodPut:
		h.updateTransaction(w, r, id)
	case http.MethodDelete:
		h.deleteTransaction(w, r, id)
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}

func (h *APIHandlers) listTransactions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := store.Filter{
		Type:  domain.TransactionType(strings.ToLower(strings.TrimSpace(query.Get("type")))),
		Phone: strings.TrimSpace(query.Get("phone")),
	}
	if filter.Type != "" && !filter.Type.Valid() {
		writeErrorDetails(w, http.StatusBadRequest, msgInvalidData, fmt.Sprintf("unknown TransactionType %q", filter.Type))
		return
	}

	txs, err := h.store.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("failed to list transactions", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list transactions")
		return
	}
	respondJSON(w, http.StatusOK, txs)
}

func (h *APIHandlers) getTransaction(w http.ResponseWriter, r *http.Request, id int) {
	tx, err := h.store.Get(r.Context(), id)
	if err != nil {
		h.storeError(w, err, "failed to fetch transaction", id)
		return
	}
	respondJSON(w, http.StatusOK, tx)
}

func (h *APIHandlers) createTransaction(w http.ResponseWriter, r *http.Request) {
	tx, ok := decodeTransaction(w, r)
	if !ok {
		return
	}

	created, err := h.store.Create(r.Context(), tx)
	if err != nil {
		h.logger.Error("failed to create transaction", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create transaction")
		return
	}
	h.logger.Info("transaction created", "transactionId", created.TransactionID)
	respondJSON(w, http.StatusCreated, created)
}

func (h *APIHandlers) updateTransaction(w http.ResponseWriter, r *http.Request, id int) {
	if _, err := h.store.Get(r.Context(), id); err != nil {
		h.storeError(w, err, "failed to fetch transaction", id)
		return
	}

	tx, ok := decodeTransaction(w, r)
	if !ok {
		return
	}

	updated, err := h.store.Update(r.Context(), id, tx)
	if err != nil {
		h.storeError(w, err, "failed to update transaction", id)
		return
	}
	h.logger.Info("transaction updated", "transactionId", id)
	respondJSON(w, http.StatusOK, updated)
}

func (h *APIHandlers) deleteTransaction(w http.ResponseWriter, r *http.Request, id int) {
	removed, err := h.store.Delete(r.Context(), id)
	if err != nil {
		h.storeError(w, err, "failed to delete transaction", id)
		return
	}
	h.logger.Info("transaction deleted", "transactionId", id)
	respondJSON(w, http.StatusOK, deleteResponse{Message: msgDeleted, Transaction: removed})
}

func (h *APIHandlers) exportTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := h.store.List(r.Context(), store.Filter{})
	if err != nil {
		h.logger.Error("failed to export transactions", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to export transactions")
		return
	}

	switch strings.ToLower(r.URL.Query().Get("format")) {
	case "csv":
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="transactions.csv"`)
		w.WriteHeader(http.StatusOK)
		if err := export.WriteCSV(w, txs); err != nil {
			h.logger.Error("failed to write csv export", "error", err)
		}
	case "", "json":
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", `attachment; filename="transactions.json"`)
		w.WriteHeader(http.StatusOK)
		if err := export.WriteJSON(w, txs); err != nil {
			h.logger.Error("failed to write json export", "error", err)
		}
	default:
		writeError(w, http.StatusBadRequest, "format must be csv or json")
	}
}

func (h *APIHandlers) storeError(w http.ResponseWriter, err error, msg string, id int) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, msgNotFound)
		return
	}
	h.logger.Error(msg, "error", err, "transactionId", id)
	writeError(w, http.StatusInternalServerError, msg)
}

type deleteResponse struct {
	Message     string             `json:"message"`
	Transaction domain.Transaction `json:"transaction"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// decodeTransaction reads and validates a transaction payload, writing the
// 400 response itself on failure.
func decodeTransaction(w http.ResponseWriter, r *http.Request) (domain.Transaction, bool) {
	var tx domain.Transaction
	if err := decodeJSON(r, &tx); err != nil {
		writeErrorDetails(w, http.StatusBadRequest, msgInvalidJSON, err.Error())
		return domain.Transaction{}, false
	}
	if err := validateTransaction(tx); err != nil {
		writeErrorDetails(w, http.StatusBadRequest, msgInvalidData, err.Error())
		return domain.Transaction{}, false
	}
	return tx, true
}

func validateTransaction(tx domain.Transaction) error {
	if tx.TransactionType != "" && !tx.TransactionType.Valid() {
		return fmt.Errorf("unknown TransactionType %q", tx.TransactionType)
	}
	if tx.Currency != nil && len(*tx.Currency) != 3 {
		return fmt.Errorf("currency %q must be a 3-letter code", *tx.Currency)
	}
	if tx.Amount.Valid && tx.Currency == nil {
		return errors.New("amount requires a currency")
	}
	for i, p := range tx.Participants {
		if p.UserType != domain.RoleSender && p.UserType != domain.RoleReceiver {
			return fmt.Errorf("participant %d: UserType must be sender or receiver", i)
		}
	}
	return nil
}

func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return errors.New("request body is required")
	}
	defer r.Body.Close()

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return err
	}
	return nil
}

func writeError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, errorResponse{Error: msg})
}

func writeErrorDetails(w http.ResponseWriter, status int, msg, details string) {
	respondJSON(w, status, errorResponse{Error: msg, Details: details})
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}
