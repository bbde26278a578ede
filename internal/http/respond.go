package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"saldo/internal/core"
	applog "saldo/internal/log"
)

const maxBodyBytes = 1 << 20

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrorMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// writeError maps ledger errors to status codes. Internal failures are
// logged and reported without detail.
func writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case core.IsPartialWrite(err):
		applog.LogError(r.Context(), "Write rolled back", err, applog.ErrorTypeInternal, op)
		writeErrorMessage(w, http.StatusInternalServerError, "write failed and was rolled back")
	case core.IsValidation(err):
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
	case core.IsNotFound(err):
		writeErrorMessage(w, http.StatusNotFound, notFoundMessage(err))
	case core.IsConflict(err):
		writeErrorMessage(w, http.StatusConflict, conflictMessage(err))
	case errors.Is(err, context.DeadlineExceeded):
		applog.LogError(r.Context(), "Request timed out", err, applog.ErrorTypeTimeout, op)
		writeErrorMessage(w, http.StatusServiceUnavailable, "request timed out")
	default:
		applog.LogError(r.Context(), "Request failed", err, applog.ErrorTypeInternal, op)
		writeErrorMessage(w, http.StatusInternalServerError, "internal error")
	}
}

func notFoundMessage(err error) string {
	var nf *core.NotFoundError
	if errors.As(err, &nf) {
		return nf.Error()
	}
	return "not found"
}

func conflictMessage(err error) string {
	var c *core.ConflictError
	if errors.As(err, &c) {
		return c.Error()
	}
	return "conflict"
}

// decodeJSON reads a single JSON object into dst. Decode problems are
// reported as validation errors on the "body" field.
func decodeJSON(r *http.Request, dst any) error {
	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "application/json") {
		return core.Invalid("body", fmt.Errorf("unsupported content type %q", ct))
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return core.Invalid("body", errors.New("empty request body"))
		}
		return core.Invalid("body", err)
	}
	if dec.More() {
		return core.Invalid("body", errors.New("trailing data after JSON object"))
	}
	return nil
}
