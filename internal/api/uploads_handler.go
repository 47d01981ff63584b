package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/chiragsdev/steward/internal/metrics"
	"github.com/chiragsdev/steward/internal/receipt"
)

// uploadsHandler accepts receipt file uploads.
type uploadsHandler struct {
	receipts *receipt.Storage
	maxSize  int64
	metrics  *metrics.Metrics
}

func newUploadsHandler(receipts *receipt.Storage, maxSize int64, m *metrics.Metrics) *uploadsHandler {
	return &uploadsHandler{receipts: receipts, maxSize: maxSize, metrics: m}
}

// sizeLimitMessage renders the configured upload cap, in whole megabytes
// when it divides evenly and in bytes otherwise.
func sizeLimitMessage(maxSize int64) string {
	if maxSize >= 1<<20 && maxSize%(1<<20) == 0 {
		return fmt.Sprintf("file exceeds the %dMB limit", maxSize/(1<<20))
	}
	return fmt.Sprintf("file exceeds the %d byte limit", maxSize)
}

// UploadReceipt handles POST /api/v1/uploads/receipt. The file is stored
// under a generated name and the URL is returned for attaching to an expense.
func (h *uploadsHandler) UploadReceipt(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxSize+(1<<20))

	if err := r.ParseMultipartForm(h.maxSize); err != nil {
		h.metrics.IncUpload("rejected")
		writeError(w, http.StatusBadRequest, "invalid_body", "expected a multipart form with a file field")
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		h.metrics.IncUpload("rejected")
		writeError(w, http.StatusBadRequest, "validation_error", "a receipt file is required in the file field")
		return
	}
	defer file.Close()

	stored, err := h.receipts.Save(file)
	if err != nil {
		h.metrics.IncUpload("rejected")
		switch {
		case errors.Is(err, receipt.ErrFileTooLarge):
			writeError(w, http.StatusBadRequest, "validation_error", sizeLimitMessage(h.maxSize))
		case errors.Is(err, receipt.ErrTypeNotAllowed):
			writeError(w, http.StatusBadRequest, "validation_error", err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "internal_error", "failed to store receipt")
		}
		return
	}

	h.metrics.IncUpload("accepted")
	auditLog(r, "upload", "receipt", stored.Name, "size", stored.Size, "type", stored.ContentType)
	writeSuccess(w, http.StatusCreated, "receipt uploaded", map[string]any{
		"url":          stored.URL,
		"name":         stored.Name,
		"size":         stored.Size,
		"content_type": stored.ContentType,
	})
}
