package http

import "net/http"

func (s *Server) handleGetBalance(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	key := balanceCacheKey("balance", id)
	if cached, ok := s.balanceCache.Get(key); ok {
		writeJSON(w, http.StatusOK, toBalanceJSON(cached))
		return
	}

	balance, err := s.svc.Balances.UserBalance(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.balanceCache.Set(key, balance)
	writeJSON(w, http.StatusOK, toBalanceJSON(balance))
}

func (s *Server) handleGetBalanceBreakdown(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	key := balanceCacheKey("breakdown", id)
	if cached, ok := s.breakdownCache.Get(key); ok {
		writeJSON(w, http.StatusOK, toBreakdownJSON(cached))
		return
	}

	rows, err := s.svc.Balances.AllBalances(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.breakdownCache.Set(key, rows)
	writeJSON(w, http.StatusOK, toBreakdownJSON(rows))
}
