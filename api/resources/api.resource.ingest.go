package resources

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/itsatony/w4b_v3/server/sensorhub/internal/errors"
	"github.com/itsatony/w4b_v3/server/sensorhub/internal/ingest"
	nuts "github.com/vaudience/go-nuts"
)

const (
	uploadField = "json_file"
	// multipartOverhead is allowed on top of the file limit for boundaries and headers.
	multipartOverhead = 1 << 20
)

// IngestHandlers exposes the bulk event upload.
type IngestHandlers struct {
	ingester      *ingest.Ingester
	maxUploadSize int64
}

// @Summary Bulk load events
// @Description Upload a JSON array of events. Every element is validated on its own;
// @Description valid events whose sensor exists are inserted in one transaction.
// @Tags events
// @Accept multipart/form-data
// @Produce json
// @Param json_file formData file true "JSON array of events"
// @Success 201 {object} ingest.Report
// @Failure 400 {object} ingest.Report
// @Failure 500 {object} map[string]string
// @Router /load-events/ [post]
// @Security BearerAuth
func (h *IngestHandlers) LoadEvents(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize+multipartOverhead)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			respondWithError(w, h.tooLarge().WithRequestID(requestID))
			return
		}
		respondWithError(w, errors.NewFieldError(uploadField, "no file was submitted").WithRequestID(requestID))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		respondWithError(w, errors.NewFieldError(uploadField, "no file was submitted").WithRequestID(requestID))
		return
	}
	defer file.Close()

	if !strings.EqualFold(filepath.Ext(header.Filename), ".json") {
		respondWithError(w, errors.NewFieldError(uploadField, "expected a .json file").WithRequestID(requestID))
		return
	}
	if header.Size > h.maxUploadSize {
		respondWithError(w, h.tooLarge().WithRequestID(requestID))
		return
	}

	report, err := h.ingester.Ingest(r.Context(), ingest.Upload{
		Filename:   header.Filename,
		RequestID:  requestID,
		Body:       file,
		ReceivedAt: time.Now().UTC(),
	})
	if err != nil {
		var parseErr *ingest.ParseError
		if stderrors.As(err, &parseErr) {
			respondWithJSON(w, http.StatusBadRequest, map[string]string{"detail": parseErr.Error()})
			return
		}
		respondWithJSON(w, http.StatusInternalServerError, map[string]string{"detail": ingest.ErrInternal.Error()})
		return
	}

	status := http.StatusBadRequest
	if report.Succeeded() {
		status = http.StatusCreated
	}
	respondWithJSON(w, status, report)
}

func (h *IngestHandlers) tooLarge() *errors.APIError {
	return errors.NewFieldError(uploadField, fmt.Sprintf("file is too large (max %s)", formatSize(h.maxUploadSize)))
}

func formatSize(n int64) string {
	const mb = 1024 * 1024
	if n%mb == 0 {
		return fmt.Sprintf("%dMB", n/mb)
	}
	return fmt.Sprintf("%d bytes", n)
}
