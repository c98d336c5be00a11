package http

import (
	"net/http"
	"time"

	"github.com/yann-pourcenoux/expense-manager/internal/core"
)

type createExpenseRequest struct {
	PayerID       int64  `json:"payer_id"`
	BeneficiaryID int64  `json:"beneficiary_id"`
	AmountCents   int64  `json:"amount_cents"`
	CategoryID    int64  `json:"category_id"`
	Date          string `json:"date"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	IsShared      bool   `json:"is_shared"`
}

type updateExpenseRequest struct {
	PayerID       *int64  `json:"payer_id"`
	BeneficiaryID *int64  `json:"beneficiary_id"`
	AmountCents   *int64  `json:"amount_cents"`
	CategoryID    *int64  `json:"category_id"`
	Date          *string `json:"date"`
	Name          *string `json:"name"`
	Description   *string `json:"description"`
	IsShared      *bool   `json:"is_shared"`
	SplitWith     []int64 `json:"split_with"`
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	reporter, err := requesterID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req createExpenseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	date := time.Now().UTC()
	if req.Date != "" {
		if date, err = parseDate(req.Date); err != nil {
			writeError(w, r, err)
			return
		}
	}

	payer := req.PayerID
	if payer == 0 {
		payer = reporter
	}

	created, err := s.svc.Expenses.AddExpense(r.Context(), core.Expense{
		ReporterID:    reporter,
		PayerID:       payer,
		BeneficiaryID: req.BeneficiaryID,
		Amount:        core.Money{Cents: req.AmountCents},
		CategoryID:    req.CategoryID,
		Date:          date,
		Name:          req.Name,
		Description:   req.Description,
		IsShared:      req.IsShared,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.invalidateBalances()
	writeJSON(w, http.StatusCreated, toExpenseJSON(created))
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	filter, err := parseExpenseFilter(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}

	expenses, err := s.svc.Expenses.ListExpenses(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toExpenseListJSON(expenses))
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	e, err := s.svc.Expenses.GetExpense(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toExpenseJSON(e))
}

func (s *Server) handleGetExpenseSplits(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	// 404 for a missing expense rather than an empty split list.
	if _, err := s.svc.Expenses.GetExpense(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}

	splits, err := s.svc.Expenses.GetExpenseSplits(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSplitListJSON(splits))
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
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

	var req updateExpenseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	patch := core.ExpensePatch{
		PayerID:       req.PayerID,
		BeneficiaryID: req.BeneficiaryID,
		CategoryID:    req.CategoryID,
		Name:          req.Name,
		Description:   req.Description,
		IsShared:      req.IsShared,
		SplitWith:     req.SplitWith,
	}
	if req.AmountCents != nil {
		patch.Amount = &core.Money{Cents: *req.AmountCents}
	}
	if req.Date != nil {
		date, err := parseDate(*req.Date)
		if err != nil {
			writeError(w, r, err)
			return
		}
		patch.Date = &date
	}

	updated, err := s.svc.Expenses.UpdateExpense(r.Context(), id, requester, patch)
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.invalidateBalances()
	writeJSON(w, http.StatusOK, toExpenseJSON(updated))
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
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

	if err := s.svc.Expenses.DeleteExpense(r.Context(), id, requester); err != nil {
		writeError(w, r, err)
		return
	}

	s.invalidateBalances()
	w.WriteHeader(http.StatusNoContent)
}
