package http

import (
	"errors"
	"net/http"

	"saldo/internal/core"
	applog "saldo/internal/log"
	"saldo/internal/services"
)

type payFixedRequest struct {
	Date      core.Date `json:"date"`
	AccountID string    `json:"account_id"`
}

type setActiveRequest struct {
	Active *bool `json:"active"`
}

func (s *Server) handleListFixed(w http.ResponseWriter, r *http.Request) {
	list, err := s.ledger.ListFixedExpenses(r.Context(), scopeFrom(r.Context()))
	if err != nil {
		writeError(w, r, applog.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleCreateFixed(w http.ResponseWriter, r *http.Request) {
	var req services.NewFixedExpense
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}
	req.Description = sanitizeInput(req.Description)

	fe, err := s.ledger.CreateFixedExpense(r.Context(), scopeFrom(r.Context()), req)
	if err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}
	writeJSON(w, http.StatusCreated, fe)
}

func (s *Server) handleFixedMonth(w http.ResponseWriter, r *http.Request) {
	month, err := s.monthParam(r, "month")
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	overview, err := s.ledger.ListFixedExpensesForMonth(r.Context(), scopeFrom(r.Context()), month)
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, overview)
}

// handlePayFixed records the month's payment; date defaults to today.
func (s *Server) handlePayFixed(w http.ResponseWriter, r *http.Request) {
	var req payFixedRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}
	if req.Date.IsEmpty() {
		req.Date = s.today()
	}

	out, err := s.ledger.MarkFixedExpensePaid(r.Context(), scopeFrom(r.Context()), pathVar(r, "id"), req.Date, req.AccountID)
	if err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (s *Server) handleUnpayFixed(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.MarkFixedExpenseUnpaid(r.Context(), scopeFrom(r.Context()), pathVar(r, "expenseID")); err != nil {
		writeError(w, r, applog.OpDelete, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetFixedActive(w http.ResponseWriter, r *http.Request) {
	var req setActiveRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, applog.OpUpdate, err)
		return
	}
	if req.Active == nil {
		writeError(w, r, applog.OpUpdate, core.Invalid("active", errors.New("required")))
		return
	}

	fe, err := s.ledger.SetFixedExpenseActive(r.Context(), scopeFrom(r.Context()), pathVar(r, "id"), *req.Active)
	if err != nil {
		writeError(w, r, applog.OpUpdate, err)
		return
	}
	writeJSON(w, http.StatusOK, fe)
}

func (s *Server) handleDeleteFixed(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.DeleteFixedExpense(r.Context(), scopeFrom(r.Context()), pathVar(r, "id")); err != nil {
		writeError(w, r, applog.OpDelete, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
