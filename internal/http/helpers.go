package http

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"bilancio/internal/core"
	applog "bilancio/internal/log"
	"bilancio/internal/storage"
)

// userHeader selects the dataset a request operates on. Absent header
// means the configured default user.
const userHeader = "X-User-ID"

func (s *Server) userID(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get(userHeader)); id != "" {
		return id
	}
	return s.defaultUserID
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

var validationErrors = []error{
	core.ErrInvalidAmount,
	core.ErrEmptyDescription,
	core.ErrEmptyName,
	core.ErrEmptyCategory,
	core.ErrInvalidKind,
	core.ErrInvalidFrequency,
	core.ErrInvalidDate,
	core.ErrInvalidBudgetLimit,
	core.ErrInvalidThreshold,
	core.ErrInvalidMonth,
	core.ErrInvalidYear,
	core.ErrDescriptionTooLong,
	core.ErrNameTooLong,
	core.ErrInvalidDateRange,
}

// writeError maps domain errors to status codes: validation failures are
// 400, missing rows 404, everything else 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
		return
	}

	for _, sentinel := range validationErrors {
		if errors.Is(err, sentinel) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
	}

	applog.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
		"method", r.Method,
		"url", r.URL.Path,
		"error", err)
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
}

func decodeBody(r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}

func writeBadRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
}

// queryInt reads an integer query parameter, falling back to def when the
// parameter is absent or malformed.
func queryInt(r *http.Request, name string, def int) int {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// referenceTime builds the reference moment for period-scoped statistics
// from optional month (1-12) and year query parameters.
func referenceTime(r *http.Request) time.Time {
	now := time.Now()
	year := queryInt(r, "year", now.Year())
	month := queryInt(r, "month", int(now.Month()))
	if month < 1 || month > 12 {
		month = int(now.Month())
	}
	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}
