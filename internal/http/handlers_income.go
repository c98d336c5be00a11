package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/yann-pourcenoux/expense-manager/internal/core"
)

type setIncomeRequest struct {
	AmountCents int64  `json:"amount_cents"`
	Month       string `json:"month"`
}

func (s *Server) handleSetIncome(w http.ResponseWriter, r *http.Request) {
	requester, err := requesterID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req setIncomeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	var month time.Time
	if req.Month != "" {
		if month, err = parseMonth(req.Month); err != nil {
			writeError(w, r, err)
			return
		}
	}

	saved, err := s.svc.Income.SetMonthlyIncome(r.Context(), requester, core.Money{Cents: req.AmountCents}, month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toIncomeJSON(saved))
}

func (s *Server) handleGetIncome(w http.ResponseWriter, r *http.Request) {
	requester, err := requesterID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var month time.Time
	if raw := strings.TrimSpace(r.URL.Query().Get("month")); raw != "" {
		if month, err = parseMonth(raw); err != nil {
			writeError(w, r, err)
			return
		}
	}

	income, err := s.svc.Income.GetMonthlyIncome(r.Context(), requester, month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toIncomeJSON(income))
}

func (s *Server) handleIncomeHistory(w http.ResponseWriter, r *http.Request) {
	requester, err := requesterID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil {
			writeError(w, r, core.Invalidf("invalid limit %q", raw))
			return
		}
	}

	history, err := s.svc.Income.IncomeHistory(r.Context(), requester, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]incomeJSON, 0, len(history))
	for _, income := range history {
		out = append(out, toIncomeJSON(income))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDeleteIncome(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	requester, err := requesterID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.svc.Income.DeleteMonthlyIncome(r.Context(), id, requester); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
