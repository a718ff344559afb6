package http

import (
	"net/http"
	"time"

	"taktsiv/internal/tabular"
)

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}

	result, err := tabular.Import(r.Context(), http.MaxBytesReader(w, r.Body, 8<<20), s.service, s.logger)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.invalidateReads()
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}

	expenses := s.service.AllExpenses(r.Context())

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition",
		`attachment; filename="expenses-`+time.Now().Format("2006-01-02")+`.csv"`)
	if err := tabular.Export(w, expenses); err != nil {
		s.logger.ErrorContext(r.Context(), "CSV export failed", "error", err)
	}
}
