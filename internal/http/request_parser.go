package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/yann-pourcenoux/expense-manager/internal/core"
	"github.com/yann-pourcenoux/expense-manager/internal/ledger"
)

// profileHeader carries the acting profile on authenticated requests. A real
// deployment would derive this from a session; the API takes it as a header
// so clients stay trivially scriptable.
const profileHeader = "X-Profile-ID"

const dateLayout = "2006-01-02"

// decodeJSON reads a JSON request body into dst, rejecting unknown fields so
// typos in field names surface as errors instead of silently dropped input.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return core.Invalidf("invalid request body: %v", err)
	}
	return nil
}

// requesterID extracts the acting profile from the request header.
func requesterID(r *http.Request) (int64, error) {
	raw := strings.TrimSpace(r.Header.Get(profileHeader))
	if raw == "" {
		return 0, core.Unauthorizedf("missing %s header", profileHeader)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, core.Unauthorizedf("invalid %s header", profileHeader)
	}
	return id, nil
}

// pathID parses the {id} path segment.
func pathID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, core.Invalidf("invalid id %q", raw)
	}
	return id, nil
}

// parseDate accepts YYYY-MM-DD.
func parseDate(raw string) (time.Time, error) {
	t, err := time.ParseInLocation(dateLayout, raw, time.UTC)
	if err != nil {
		return time.Time{}, core.Invalidf("invalid date %q: expected %s", raw, dateLayout)
	}
	return t, nil
}

// parseMonth accepts YYYY-MM and returns the first of that month.
func parseMonth(raw string) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01", raw, time.UTC)
	if err != nil {
		return time.Time{}, core.Invalidf("invalid month %q: expected YYYY-MM", raw)
	}
	return t, nil
}

// parseExpenseFilter reads list filters from the query string.
func parseExpenseFilter(query url.Values) (ledger.ExpenseFilter, error) {
	var filter ledger.ExpenseFilter

	if raw := strings.TrimSpace(query.Get("user_id")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return filter, core.Invalidf("invalid user_id %q", raw)
		}
		filter.UserID = id
	}
	if raw := strings.TrimSpace(query.Get("category_id")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return filter, core.Invalidf("invalid category_id %q", raw)
		}
		filter.CategoryID = id
	}
	if raw := strings.TrimSpace(query.Get("start_date")); raw != "" {
		t, err := parseDate(raw)
		if err != nil {
			return filter, err
		}
		filter.StartDate = t
	}
	if raw := strings.TrimSpace(query.Get("end_date")); raw != "" {
		t, err := parseDate(raw)
		if err != nil {
			return filter, err
		}
		filter.EndDate = t
	}
	if raw := strings.TrimSpace(query.Get("shared")); raw != "" {
		shared, err := strconv.ParseBool(raw)
		if err != nil {
			return filter, core.Invalidf("invalid shared flag %q", raw)
		}
		filter.SharedOnly = shared
	}
	return filter, nil
}

// parseTransferFilter reads transfer list filters from the query string.
func parseTransferFilter(query url.Values) (ledger.TransferFilter, error) {
	var filter ledger.TransferFilter

	if raw := strings.TrimSpace(query.Get("user_id")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return filter, core.Invalidf("invalid user_id %q", raw)
		}
		filter.UserID = id
	}
	if raw := strings.TrimSpace(query.Get("start_date")); raw != "" {
		t, err := parseDate(raw)
		if err != nil {
			return filter, err
		}
		filter.StartDate = t
	}
	if raw := strings.TrimSpace(query.Get("end_date")); raw != "" {
		t, err := parseDate(raw)
		if err != nil {
			return filter, err
		}
		filter.EndDate = t
	}
	return filter, nil
}

// balanceCacheKey builds the cache key for one profile's balance reads.
func balanceCacheKey(prefix string, userID int64) string {
	return fmt.Sprintf("%s:%d", prefix, userID)
}
