package response

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dskvich/ifood-info-bot/pkg/logger"
)

type JSONResponseWriter struct{}

func (j *JSONResponseWriter) WriteSuccessResponse(w http.ResponseWriter, data any) {
	j.WriteResponse(w, http.StatusOK, data)
}

func (j *JSONResponseWriter) WriteResponse(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Encoding response", "status", statusCode, logger.Err(err))
	}
}

func (j *JSONResponseWriter) WriteErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	j.WriteResponse(w, statusCode, ErrorResponse{Error: message})
}

// DecodeRequest reads a JSON body into v, rejecting unknown fields.
func DecodeRequest(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

type ErrorResponse struct {
	Error string `json:"error"`
}
