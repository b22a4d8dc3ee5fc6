package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"bilancio/internal/export"
)

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	snap, err := s.snapshot(r.Context(), s.userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", export.Filename(time.Now())))

	if err := export.WriteCSV(w, snap.Transactions, snap.Categories); err != nil {
		// Headers are already out, all we can do is log.
		slog.ErrorContext(r.Context(), "CSV export failed", "error", err)
	}
}
