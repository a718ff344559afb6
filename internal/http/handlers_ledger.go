package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"taktsiv/internal/core"
	"taktsiv/internal/ledger"
)

type balanceEntry struct {
	Category  core.Category `json:"category"`
	Allocated core.Money    `json:"allocated"`
	Spent     core.Money    `json:"spent"`
	Remaining core.Money    `json:"remaining"`
	Negative  bool          `json:"negative"`
}

type balancesResponse struct {
	Month    string         `json:"month"`
	Balances []balanceEntry `json:"balances"`
	Total    core.Money     `json:"totalAllocated"`
}

func (s *Server) handleBalances(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}

	if cached, ok := s.balancesCache.Get(balancesCacheKey); ok {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	balances, alloc := s.service.Balances(r.Context())
	resp := balancesResponse{
		Month: core.MonthKey(time.Now().In(core.Location())),
		Total: alloc.Total(),
	}
	for _, c := range core.Categories() {
		remaining := balances[c]
		allocated := alloc[c]
		resp.Balances = append(resp.Balances, balanceEntry{
			Category:  c,
			Allocated: allocated,
			Spent:     allocated.Sub(remaining),
			Remaining: remaining,
			Negative:  remaining.IsNegative(),
		})
	}

	s.balancesCache.Set(balancesCacheKey, resp)
	writeJSON(w, http.StatusOK, resp)
}

type postExpenseRequest struct {
	Category string `json:"category"`
	Amount   string `json:"amount"`
	Note     string `json:"note"`
}

func (s *Server) handleExpenses(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, s.service.Expenses(r.Context()))
	case http.MethodPost:
		s.handlePostExpense(w, r)
	default:
		methodNotAllowed(w, "GET, POST")
	}
}

func (s *Server) handlePostExpense(w http.ResponseWriter, r *http.Request) {
	var req postExpenseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	category, err := core.ParseCategory(sanitizeInput(req.Category))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid amount: "+req.Amount)
		return
	}

	expense, err := s.service.PostExpense(r.Context(), category, amount, sanitizeInput(req.Note))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.invalidateReads()
	writeJSON(w, http.StatusCreated, expense)
}

func (s *Server) handleExpenseByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/expenses/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if r.Method != http.MethodDelete {
		methodNotAllowed(w, "DELETE")
		return
	}

	if err := s.service.DeleteExpense(r.Context(), id); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.invalidateReads()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClearExpenses(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}

	if err := s.service.ClearExpenses(r.Context()); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.invalidateReads()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCategoryReset(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/categories/")
	name, ok := strings.CutSuffix(rest, "/reset")
	if !ok || name == "" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}

	category, err := core.ParseCategory(name)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.service.ResetCategory(r.Context(), category); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.invalidateReads()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAllocation(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, s.service.Allocation(r.Context()))
	case http.MethodPut:
		s.handlePutAllocation(w, r)
	default:
		methodNotAllowed(w, "GET, PUT")
	}
}

func (s *Server) handlePutAllocation(w http.ResponseWriter, r *http.Request) {
	var req map[string]string
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	alloc := make(core.Allocation, len(req))
	for name, raw := range req {
		category, err := core.ParseCategory(name)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		amount, err := parseAmount(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid amount for "+name+": "+raw)
			return
		}
		alloc[category] = amount
	}

	updated, err := s.service.UpdateAllocation(r.Context(), alloc)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.invalidateReads()
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleRollover(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}

	report, err := s.service.Rollover(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.invalidateReads()
	writeJSON(w, http.StatusOK, report)
}

// writeServiceError maps service errors onto HTTP statuses: validation
// failures are the caller's fault, anything else is a persistence problem.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ledger.ErrExpenseNotFound), errors.Is(err, ledger.ErrEntryNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrUnknownCategory),
		errors.Is(err, core.ErrMissingCategory),
		errors.Is(err, core.ErrIncompleteMapping),
		errors.Is(err, core.ErrNoteTooLong):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.ErrorContext(r.Context(), "Request failed", "error", err, "url", r.URL.Path)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
