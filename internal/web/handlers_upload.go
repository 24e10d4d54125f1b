package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/datacleanser/internal/core"
	"github.com/JonMunkholm/datacleanser/internal/web/templates"
)

// multipartOverhead is allowed on top of the file size limit so oversized
// files still reach validation and get the size message.
const multipartOverhead = 1 << 20

// handleUploadPage shows the drag-and-drop upload widget.
func (s *Server) handleUploadPage(w http.ResponseWriter, r *http.Request) {
	maxSize := s.service.MaxFileSize()
	s.page(w, r, http.StatusOK, "Upload", templates.UploadPage(maxSize, core.FileTooLarge(maxSize).Message))
}

// handleUpload validates the selection and starts forwarding it to the
// backend. It answers with the upload id; progress is streamed separately.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	maxSize := s.service.MaxFileSize()
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			s.respondError(w, r, core.FileTooLarge(maxSize), http.StatusRequestEntityTooLarge)
			return
		}
		s.respondError(w, r, core.ErrNoFile, http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["file"]
	files := make([]core.UploadFile, 0, len(headers))
	for _, fh := range headers {
		files = append(files, core.UploadFile{
			Name:        fh.Filename,
			Size:        fh.Size,
			ContentType: fh.Header.Get("Content-Type"),
			Open:        func() (io.ReadCloser, error) { return fh.Open() },
		})
	}

	uploadID, err := s.service.StartUpload(r.Context(), s.backend(r), files)
	if err != nil {
		status := http.StatusInternalServerError
		var ve *core.ValidationError
		if errors.As(err, &ve) {
			status = http.StatusBadRequest
		}
		s.respondError(w, r, err, status)
		return
	}

	writeJSON(w, r, map[string]string{"upload_id": uploadID})
}

// handleUploadProgress streams upload progress via Server-Sent Events.
// A progress event is sent per change, then a single complete or failed
// event carrying the final state.
func (s *Server) handleUploadProgress(w http.ResponseWriter, r *http.Request) {
	uploadID := chi.URLParam(r, "uploadID")

	progressCh, err := s.service.SubscribeProgress(r.Context(), uploadID)
	if err != nil {
		s.respondError(w, r, err, http.StatusNotFound)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.respondError(w, r, errors.New("streaming not supported"), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	for {
		select {
		case progress, ok := <-progressCh:
			if !ok {
				writeEvent(w, "", s.finalState(r, uploadID))
				flusher.Flush()
				return
			}
			if progress.Phase.Done() {
				// The terminal snapshot is sent once, after the close.
				continue
			}
			writeEvent(w, strconv.Itoa(progress.Percent), progress)
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}

// finalState reads the terminal snapshot. An upload dropped after its
// retention period reports as failed.
func (s *Server) finalState(r *http.Request, uploadID string) core.UploadProgress {
	p, err := s.service.UploadStatus(r.Context(), uploadID)
	if err != nil {
		msg := core.MapError(err)
		return core.UploadProgress{UploadID: uploadID, Phase: core.PhaseFailed, Error: msg.Message, Code: msg.Code}
	}
	return p
}

func writeEvent(w io.Writer, id string, p core.UploadProgress) {
	event := "progress"
	switch p.Phase {
	case core.PhaseComplete:
		event = "complete"
	case core.PhaseFailed:
		event = "failed"
	}
	data, _ := json.Marshal(p)
	if id != "" {
		fmt.Fprintf(w, "id: %s\n", id)
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
}
