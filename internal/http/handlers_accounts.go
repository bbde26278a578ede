package http

import (
	"net/http"

	"saldo/internal/core"
	applog "saldo/internal/log"
)

type createAccountRequest struct {
	Name           string     `json:"name"`
	OpeningBalance core.Money `json:"opening_balance"`
}

type createCardRequest struct {
	Name       string     `json:"name"`
	Limit      core.Money `json:"limit"`
	ClosingDay int        `json:"closing_day"`
	DueDay     int        `json:"due_day"`
}

type payInvoiceRequest struct {
	Month  string    `json:"month"`
	PaidOn core.Date `json:"paid_on"`
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.ledger.ListAccountsWithCards(r.Context(), scopeFrom(r.Context()))
	if err != nil {
		writeError(w, r, applog.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, accounts)
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}
	acc, err := s.ledger.CreateAccount(r.Context(), scopeFrom(r.Context()), sanitizeInput(req.Name), req.OpeningBalance)
	if err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}
	writeJSON(w, http.StatusCreated, acc)
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.DeleteAccount(r.Context(), scopeFrom(r.Context()), pathVar(r, "id")); err != nil {
		writeError(w, r, applog.OpDelete, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAccountBalance(w http.ResponseWriter, r *http.Request) {
	bal, err := s.ledger.GetAccountBalance(r.Context(), scopeFrom(r.Context()), pathVar(r, "id"))
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, bal)
}

func (s *Server) handleHouseholdBalance(w http.ResponseWriter, r *http.Request) {
	bal, err := s.ledger.GetHouseholdBalance(r.Context(), scopeFrom(r.Context()))
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, bal)
}

func (s *Server) handleCreateCard(w http.ResponseWriter, r *http.Request) {
	var req createCardRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}
	card, err := s.ledger.CreateCard(r.Context(), scopeFrom(r.Context()), pathVar(r, "id"),
		sanitizeInput(req.Name), req.Limit, req.ClosingDay, req.DueDay)
	if err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}
	writeJSON(w, http.StatusCreated, card)
}

func (s *Server) handleDeleteCard(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.DeleteCard(r.Context(), scopeFrom(r.Context()), pathVar(r, "id")); err != nil {
		writeError(w, r, applog.OpDelete, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCardLimit(w http.ResponseWriter, r *http.Request) {
	limit, err := s.ledger.GetCardAvailableLimit(r.Context(), scopeFrom(r.Context()), pathVar(r, "id"))
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, limit)
}

func (s *Server) handleCardInvoice(w http.ResponseWriter, r *http.Request) {
	month, err := s.monthParam(r, "month")
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	inv, err := s.ledger.GetCardInvoice(r.Context(), scopeFrom(r.Context()), pathVar(r, "id"), month)
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

// handlePayCardInvoice pays the month's invoice; month defaults to the
// current one and paid_on to today.
func (s *Server) handlePayCardInvoice(w http.ResponseWriter, r *http.Request) {
	var req payInvoiceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, applog.OpUpdate, err)
		return
	}
	month := s.today().MonthStart()
	if req.Month != "" {
		m, err := core.ParseMonth(req.Month)
		if err != nil {
			writeError(w, r, applog.OpUpdate, core.Invalid("month", err))
			return
		}
		month = m
	}
	paidOn := req.PaidOn
	if paidOn.IsEmpty() {
		paidOn = s.today()
	}

	inv, err := s.ledger.PayCardInvoice(r.Context(), scopeFrom(r.Context()), pathVar(r, "id"), month, paidOn)
	if err != nil {
		writeError(w, r, applog.OpUpdate, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}
