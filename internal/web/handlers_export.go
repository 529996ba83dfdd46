package web

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// exportFilename builds a dated download name.
func exportFilename(ext string) string {
	return fmt.Sprintf("buyers-%s.%s", time.Now().UTC().Format("20060102"), ext)
}

// handleExportCSV streams every buyer matching the list filters. Paging
// parameters are ignored.
func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	q := parseListQuery(r)
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, exportFilename("csv")))

	n, err := s.service.ExportCSV(r.Context(), q, w)
	if err != nil {
		w.Header().Del("Content-Disposition")
		s.fail(w, r, err)
		return
	}
	slog.Debug("exported buyers", "format", "csv", "rows", n)
}

func (s *Server) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	q := parseListQuery(r)
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, exportFilename("xlsx")))

	n, err := s.service.ExportXLSX(r.Context(), q, w)
	if err != nil {
		w.Header().Del("Content-Disposition")
		s.fail(w, r, err)
		return
	}
	slog.Debug("exported buyers", "format", "xlsx", "rows", n)
}
