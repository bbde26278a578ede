package http

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"saldo/internal/core"
)

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

func pathVar(r *http.Request, name string) string {
	return mux.Vars(r)[name]
}

func (s *Server) today() core.Date {
	return core.DateOf(s.now())
}

// monthParam reads a YYYY-MM query value, defaulting to the current month.
func (s *Server) monthParam(r *http.Request, name string) (core.Date, error) {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return s.today().MonthStart(), nil
	}
	m, err := core.ParseMonth(v)
	if err != nil {
		return core.Date{}, core.Invalid(name, err)
	}
	return m, nil
}

// dateParam reads a YYYY-MM-DD query value, falling back to def.
func dateParam(r *http.Request, name string, def core.Date) (core.Date, error) {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return def, nil
	}
	d, err := core.ParseDate(v)
	if err != nil {
		return core.Date{}, core.Invalid(name, err)
	}
	return d, nil
}
