package http

import (
	"net/http"

	"saldo/internal/core"
	applog "saldo/internal/log"
	"saldo/internal/services"
)

type createCategoryRequest struct {
	Name string            `json:"name"`
	Kind core.CategoryKind `json:"kind"`
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.ledger.ListCategories(r.Context(), scopeFrom(r.Context()))
	if err != nil {
		writeError(w, r, applog.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, cats)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req createCategoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}
	cat, err := s.ledger.CreateCategory(r.Context(), scopeFrom(r.Context()), sanitizeInput(req.Name), req.Kind)
	if err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}
	writeJSON(w, http.StatusCreated, cat)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.DeleteCategory(r.Context(), scopeFrom(r.Context()), pathVar(r, "id")); err != nil {
		writeError(w, r, applog.OpDelete, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req services.NewExpense
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}
	req.Description = sanitizeInput(req.Description)

	out, err := s.ledger.CreateExpense(r.Context(), scopeFrom(r.Context()), req)
	if err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.DeleteExpense(r.Context(), scopeFrom(r.Context()), pathVar(r, "id")); err != nil {
		writeError(w, r, applog.OpDelete, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCreateIncome(w http.ResponseWriter, r *http.Request) {
	var req services.NewIncome
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}
	req.Description = sanitizeInput(req.Description)

	in, err := s.ledger.CreateIncome(r.Context(), scopeFrom(r.Context()), req)
	if err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}
	writeJSON(w, http.StatusCreated, in)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	kind := core.EntryType(pathVar(r, "kind"))
	if err := s.ledger.DeleteTransaction(r.Context(), scopeFrom(r.Context()), pathVar(r, "id"), kind); err != nil {
		writeError(w, r, applog.OpDelete, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleStatement defaults to the current calendar month.
func (s *Server) handleStatement(w http.ResponseWriter, r *http.Request) {
	today := s.today()
	start, err := dateParam(r, "start", today.MonthStart())
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	end, err := dateParam(r, "end", start.MonthEnd())
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}

	entries, err := s.ledger.GetStatement(r.Context(), scopeFrom(r.Context()), start, end)
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	month, err := s.monthParam(r, "month")
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	sum, err := s.ledger.GetMonthSummary(r.Context(), scopeFrom(r.Context()), month)
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}
