package httpdebug

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/marmos91/nfsbench/internal/logger"
)

// writeJSON encodes data to a buffer first so an encoding failure can still
// be reported with a well-formed error body instead of a half-written
// response, mirroring the teacher's handlers.writeJSON.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(data); err != nil {
		logger.Error("failed to encode debug http response", "error", err)
		http.Error(w, `{"error":"failed to encode response"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}
