package http

import (
	"net/http"
	"time"

	"github.com/yann-pourcenoux/expense-manager/internal/core"
)

type createTransferRequest struct {
	BeneficiaryID int64  `json:"beneficiary_id"`
	AmountCents   int64  `json:"amount_cents"`
	Date          string `json:"date"`
}

func (s *Server) handleCreateTransfer(w http.ResponseWriter, r *http.Request) {
	source, err := requesterID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req createTransferRequest
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

	created, err := s.svc.Transfers.CreateTransfer(r.Context(), core.Transfer{
		SourceID:      source,
		BeneficiaryID: req.BeneficiaryID,
		Amount:        core.Money{Cents: req.AmountCents},
		Date:          date,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.invalidateBalances()
	writeJSON(w, http.StatusCreated, toTransferJSON(created))
}

func (s *Server) handleListTransfers(w http.ResponseWriter, r *http.Request) {
	filter, err := parseTransferFilter(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}

	transfers, err := s.svc.Transfers.ListTransfers(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]transferJSON, 0, len(transfers))
	for _, t := range transfers {
		out = append(out, toTransferJSON(t))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDeleteTransfer(w http.ResponseWriter, r *http.Request) {
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

	if err := s.svc.Transfers.DeleteTransfer(r.Context(), id, requester); err != nil {
		writeError(w, r, err)
		return
	}

	s.invalidateBalances()
	w.WriteHeader(http.StatusNoContent)
}
