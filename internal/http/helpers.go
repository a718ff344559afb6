package http

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"taktsiv/internal/core"
)

type contextKey string

const requestIDKey contextKey = "request_id"

const (
	balancesCacheKey  = "balances"
	reportsCacheKey   = "reports"
	analyticsCacheKey = "analytics"
)

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to timestamp if random fails
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

// sanitizeInput trims whitespace and strips control characters.
func sanitizeInput(input string) string {
	input = strings.TrimSpace(input)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\n' && r != '\t' {
			return -1
		}
		return r
	}, input)
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// decodeJSON reads a small JSON request body into dst.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// parseMonthPath converts the URL month form "MM-YYYY" to the archive key
// form "MM/YYYY".
func parseMonthPath(segment string) (string, error) {
	key := strings.Replace(segment, "-", "/", 1)
	if !core.ValidMonthKey(key) {
		return "", fmt.Errorf("invalid month %q, want MM-YYYY", segment)
	}
	return key, nil
}

// parseAmount converts a decimal shekel string to Money.
func parseAmount(raw string) (core.Money, error) {
	agorot, err := core.ParseDecimalToAgorot(sanitizeInput(raw))
	if err != nil {
		return core.Money{}, err
	}
	return core.Money{Agorot: agorot}, nil
}
