package api

import (
	"encoding/json"
	"io"
	"net/http"
)

// maxBodySize is the maximum allowed request body size (1 MB). Receipt
// uploads use their own multipart limit.
const maxBodySize = 1 << 20

// successEnvelope is the standard response shape for successful operations.
type successEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// failureEnvelope is the standard response shape for failed operations. Data
// carries operation-specific detail such as assigned-user counts.
type failureEnvelope struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Error   string `json:"error"`
	Data    any    `json:"data,omitempty"`
}

// writeSuccess writes a success envelope with the given status code.
func writeSuccess(w http.ResponseWriter, statusCode int, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(successEnvelope{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// writeError writes a failure envelope with the given status code.
func writeError(w http.ResponseWriter, statusCode int, code, message string) {
	writeErrorData(w, statusCode, code, message, nil)
}

// writeErrorData writes a failure envelope carrying extra detail.
func writeErrorData(w http.ResponseWriter, statusCode int, code, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(failureEnvelope{
		Success: false,
		Code:    code,
		Error:   message,
		Data:    data,
	})
}

// readJSON decodes the request body into v, enforcing a size limit.
func readJSON(r *http.Request, v any) error {
	lr := io.LimitReader(r.Body, maxBodySize)
	return json.NewDecoder(lr).Decode(v)
}
