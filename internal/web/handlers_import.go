package web

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/JonMunkholm/buyerleads/internal/core"
	"github.com/JonMunkholm/buyerleads/internal/web/templates"
)

// handleImport accepts a CSV as the "file" part of a multipart form or as a
// raw text/csv body. The whole file commits or nothing does.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	user, err := actor(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	data, err := s.readImport(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(WithRequestMetadata(r.Context(), r), s.cfg.Import.Timeout)
	defer cancel()

	res, err := s.service.ImportCSV(ctx, user, data)
	switch {
	case errors.Is(err, core.ErrBatchInvalid):
		s.respondImportRejected(w, r, res)
		return
	case err != nil:
		s.fail(w, r, err)
		return
	}

	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusCreated)
		templates.ImportResult(res).Render(r.Context(), w)
		return
	}
	writeJSONStatus(w, http.StatusCreated, res)
}

// handleImportPreview validates an upload without writing it. Row errors
// come back with status 200 inside the preview.
func (s *Server) handleImportPreview(w http.ResponseWriter, r *http.Request) {
	data, err := s.readImport(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	preview, err := s.service.PreviewImport(r.Context(), data)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, preview)
}

// readImport returns the uploaded bytes, bounded by the configured size.
func (s *Server) readImport(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	limit := s.cfg.Import.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return io.ReadAll(r.Body)
	}

	if err := r.ParseMultipartForm(limit); err != nil {
		return nil, err
	}
	file, _, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, errNoFile
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(file)
}

// respondImportRejected answers 422 with every row error.
func (s *Server) respondImportRejected(w http.ResponseWriter, r *http.Request, res core.ImportResult) {
	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusUnprocessableEntity)
		templates.ImportResult(res).Render(r.Context(), w)
		return
	}
	resp := errorResponse(core.ErrBatchInvalid)
	resp.Rows = res.Errors
	resp.ValidCount = &res.ValidCount
	writeJSONStatus(w, http.StatusUnprocessableEntity, resp)
}

// handleImportTemplate serves an empty import file with every column.
func (s *Server) handleImportTemplate(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="buyers-import-template.csv"`)
	fmt.Fprintln(w, strings.Join(core.CSVColumns, ","))
}
