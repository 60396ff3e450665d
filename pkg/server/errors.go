package server

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the envelope for transport-level errors.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes one error.
type ErrorDetail struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Param   string `json:"param,omitempty"`
	Code    string `json:"code,omitempty"`
}

// Error types.
const (
	ErrorTypeInvalidRequest     = "invalid_request_error"
	ErrorTypeNotFound           = "not_found"
	ErrorTypeServerError        = "server_error"
	ErrorTypeServiceUnavailable = "service_unavailable"
)

// Error codes.
const (
	CodeInvalidJSON     = "invalid_json"
	CodeMissingField    = "missing_field"
	CodeInvalidValue    = "invalid_value"
	CodeBodyTooLarge    = "body_too_large"
	CodeBatchTooLarge   = "batch_too_large"
	CodeNoRoute         = "no_route"
	CodeUsageNotEnabled = "usage_not_enabled"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, errType, code, param, message string) {
	writeJSON(w, status, ErrorResponse{Error: ErrorDetail{
		Message: message,
		Type:    errType,
		Param:   param,
		Code:    code,
	}})
}
