package http

import (
	"net/http"

	"taktsiv/internal/voice"
)

func (s *Server) voiceReady(w http.ResponseWriter) bool {
	if s.intake == nil {
		writeError(w, http.StatusServiceUnavailable, "voice entry is disabled")
		return false
	}
	return true
}

func (s *Server) handleVoiceListen(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}
	if !s.voiceReady(w) {
		return
	}
	writeJSON(w, http.StatusOK, s.intake.StartListening(r.Context()))
}

type transcriptRequest struct {
	Transcript string `json:"transcript"`
}

type voiceStatusResponse struct {
	voice.Status
	Error string `json:"error,omitempty"`
}

func (s *Server) handleVoiceTranscript(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}
	if !s.voiceReady(w) {
		return
	}

	var req transcriptRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	status, err := s.intake.SubmitTranscript(r.Context(), sanitizeInput(req.Transcript))
	if err != nil {
		// The partially parsed values travel back so the client can prefill
		// a manual form.
		writeJSON(w, http.StatusUnprocessableEntity, voiceStatusResponse{Status: status, Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, voiceStatusResponse{Status: status})
}

func (s *Server) handleVoiceConfirm(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}
	if !s.voiceReady(w) {
		return
	}

	status, err := s.intake.Confirm(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Voice confirm failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, voiceStatusResponse{Status: status, Error: err.Error()})
		return
	}

	s.invalidateReads()
	writeJSON(w, http.StatusOK, voiceStatusResponse{Status: status})
}

func (s *Server) handleVoiceCancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}
	if !s.voiceReady(w) {
		return
	}
	writeJSON(w, http.StatusOK, s.intake.Cancel(r.Context()))
}

func (s *Server) handleVoiceStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}
	if !s.voiceReady(w) {
		return
	}
	writeJSON(w, http.StatusOK, s.intake.Status())
}
