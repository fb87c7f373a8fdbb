package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/PayrollDash/internal/bulkimport"
	"github.com/JonMunkholm/PayrollDash/internal/core"
	"github.com/JonMunkholm/PayrollDash/internal/web/templates"
)

// multipartOverhead is allowed on top of the file size for form fields and
// part headers.
const multipartOverhead = 1 << 20

// ImportResultResponse is the JSON body of a finished or pending import.
type ImportResultResponse struct {
	ImportID string             `json:"importId"`
	Phase    core.ImportPhase   `json:"phase"`
	Result   *bulkimport.Result `json:"result,omitempty"`
	Error    string             `json:"error,omitempty"`
}

// handleStartImport accepts a JSON file and returns its preview. The file is
// sent either as the "file" field of a multipart form or as a raw
// application/json body named by the "name" query parameter.
func (s *Server) handleStartImport(w http.ResponseWriter, r *http.Request) {
	maxSize := s.cfg.Import.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)

	req := core.ImportRequest{
		CompanyID:  r.URL.Query().Get("company"),
		EmployeeID: r.URL.Query().Get("employee"),
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxSize); err != nil {
			s.fail(w, r, uploadError(err, maxSize))
			return
		}
		defer r.MultipartForm.RemoveAll()

		file, header, err := r.FormFile("file")
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "FILE002", "no file provided")
			return
		}
		defer file.Close()

		if v := r.FormValue("company"); v != "" {
			req.CompanyID = v
		}
		if v := r.FormValue("employee"); v != "" {
			req.EmployeeID = v
		}
		req.FileName = header.Filename
		req.Body = file
	case "application/json":
		req.FileName = r.URL.Query().Get("name")
		if req.FileName == "" {
			req.FileName = "import.json"
		}
		req.Body = r.Body
	default:
		writeError(w, r, http.StatusUnsupportedMediaType, "FILE001", "expected multipart/form-data or application/json")
		return
	}

	ctx := WithRequestMetadata(r.Context(), r)
	sess, err := s.service.StartImport(ctx, req)
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			err = uploadError(err, maxSize)
		}
		s.fail(w, r, err)
		return
	}

	if isHTMX(r) {
		render(w, r, templates.ImportStatus(sess))
		return
	}
	w.Header().Set("Location", "/api/imports/"+sess.ID)
	writeJSONStatus(w, http.StatusCreated, sess)
}

// uploadError turns a body size overrun into the file-too-large error.
func uploadError(err error, limit int64) error {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return &bulkimport.FileError{
			Code:    bulkimport.CodeTooLarge,
			Message: fmt.Sprintf("Dosya çok büyük (en fazla %d bayt)", limit),
			Err:     err,
		}
	}
	return &bulkimport.FileError{Code: bulkimport.CodeRead, Message: "Dosya okunamadı", Err: err}
}

// handleGetImport returns the current state of an import.
func (s *Server) handleGetImport(w http.ResponseWriter, r *http.Request) {
	sess, err := s.service.GetImport(chi.URLParam(r, "importID"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if isHTMX(r) {
		render(w, r, templates.ImportStatus(sess))
		return
	}
	writeJSON(w, sess)
}

// handleConfirmImport starts submitting the previewed records. The request
// returns as soon as the import holds a slot; progress is streamed separately.
func (s *Server) handleConfirmImport(w http.ResponseWriter, r *http.Request) {
	ctx := WithRequestMetadata(r.Context(), r)
	sess, err := s.service.ConfirmImport(ctx, chi.URLParam(r, "importID"))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	if isHTMX(r) {
		render(w, r, templates.ImportStatus(sess))
		return
	}
	writeJSONStatus(w, http.StatusAccepted, sess)
}

// handleDiscardImport drops a preview that will not be submitted.
func (s *Server) handleDiscardImport(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DiscardImport(chi.URLParam(r, "importID")); err != nil {
		s.fail(w, r, err)
		return
	}
	if isHTMX(r) {
		render(w, r, templates.Notice("neutral", "İçe aktarma iptal edildi"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleImportResult waits for a confirmed import to finish. An unconfirmed
// import answers at once with no result.
func (s *Server) handleImportResult(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "importID")
	res, err := s.service.ImportResult(r.Context(), id)

	sess, serr := s.service.GetImport(id)
	if serr != nil {
		s.fail(w, r, serr)
		return
	}

	resp := ImportResultResponse{ImportID: id, Phase: sess.Phase, Result: res}
	if err != nil {
		if !sess.Phase.Terminal() {
			// ctx ended while waiting
			s.fail(w, r, err)
			return
		}
		resp.Error = err.Error()
	}
	writeJSON(w, resp)
}

// handleImportProgress streams import progress via Server-Sent Events.
// Supports resumption via the Last-Event-ID header or lastEventId query
// parameter; the event id is the number of processed records.
func (s *Server) handleImportProgress(w http.ResponseWriter, r *http.Request) {
	importID := chi.URLParam(r, "importID")

	lastEventID := -1
	raw := r.Header.Get("Last-Event-ID")
	if raw == "" {
		raw = r.URL.Query().Get("lastEventId")
	}
	if raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			lastEventID = n
		}
	}

	progressCh, err := s.service.SubscribeImport(importID)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	rc := http.NewResponseController(w)
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	for {
		select {
		case progress, ok := <-progressCh:
			if !ok {
				fmt.Fprint(w, "event: complete\ndata: {}\n\n")
				_ = rc.Flush()
				return
			}

			// Terminal events are always sent so a resumed client learns the outcome.
			if progress.Processed <= lastEventID && !progress.Phase.Terminal() {
				continue
			}
			lastEventID = progress.Processed

			data, _ := json.Marshal(progress)
			fmt.Fprintf(w, "id: %d\nevent: progress\ndata: %s\n\n", progress.Processed, data)
			if err := rc.Flush(); err != nil {
				return
			}

		case <-r.Context().Done():
			return
		}
	}
}

// handleImportHistory lists recorded imports, newest first.
func (s *Server) handleImportHistory(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := s.service.ImportHistory(r.Context(), limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if isHTMX(r) {
		render(w, r, templates.ImportHistory(entries))
		return
	}
	writeJSON(w, entries)
}
