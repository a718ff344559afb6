package http

import (
	"net/http"
	"strings"

	"taktsiv/internal/core"
)

type reportsResponse struct {
	Months       []string   `json:"months"`
	TotalSavings core.Money `json:"totalSavings"`
}

func (s *Server) handleReports(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}

	archive := s.service.Reports(r.Context())

	months, ok := s.reportsCache.Get(reportsCacheKey)
	if !ok {
		months = archive.Months()
		s.reportsCache.Set(reportsCacheKey, months)
	}
	if months == nil {
		months = []string{}
	}

	writeJSON(w, http.StatusOK, reportsResponse{
		Months:       months,
		TotalSavings: archive.TotalSavings(),
	})
}

func (s *Server) handleReportByMonth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}

	segment := strings.TrimPrefix(r.URL.Path, "/api/reports/")
	month, err := parseMonthPath(segment)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	report, ok := s.service.Report(r.Context(), month)
	if !ok {
		writeError(w, http.StatusNotFound, "no report for "+month)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}

	if cached, ok := s.analyticsCache.Get(analyticsCacheKey); ok {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	report := s.service.Analytics(r.Context())
	s.analyticsCache.Set(analyticsCacheKey, report)
	writeJSON(w, http.StatusOK, report)
}

type smallCashResponse struct {
	SmallCash core.Money `json:"smallCash"`
}

func (s *Server) handleSmallCash(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}
	writeJSON(w, http.StatusOK, smallCashResponse{SmallCash: s.service.SmallCash(r.Context())})
}

type customResponse struct {
	Ledger  core.CustomLedger `json:"ledger"`
	Balance core.Money        `json:"balance"`
}

func (s *Server) handleCustom(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}

	custom, balance, err := s.service.Custom(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, customResponse{Ledger: custom, Balance: balance})
}

type customEntryRequest struct {
	Description string `json:"description"`
	Amount      string `json:"amount"`
}

// handleCustomMutation serves POST /api/custom/incomes, POST
// /api/custom/expenses and DELETE /api/custom/entries/{id}.
func (s *Server) handleCustomMutation(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/custom/")

	if id, ok := strings.CutPrefix(rest, "entries/"); ok {
		if r.Method != http.MethodDelete {
			methodNotAllowed(w, "DELETE")
			return
		}
		if err := s.service.DeleteCustomEntry(r.Context(), id); err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if rest != "incomes" && rest != "expenses" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}

	var req customEntryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid amount: "+req.Amount)
		return
	}

	description := sanitizeInput(req.Description)
	var entry core.CustomEntry
	if rest == "incomes" {
		entry, err = s.service.AddCustomIncome(r.Context(), description, amount)
	} else {
		entry, err = s.service.AddCustomExpense(r.Context(), description, amount)
	}
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}
