package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"tickerwire/llmgateway/pkg/gateway"
	"tickerwire/llmgateway/pkg/ledger"
)

// SubmitRequest is the wire form of gateway.Request. Timeout is not
// serialized on Request, so it travels as seconds.
type SubmitRequest struct {
	gateway.Request
	TimeoutSeconds float64 `json:"timeout_seconds,omitempty"`
}

// toGateway converts the wire form.
func (r SubmitRequest) toGateway() gateway.Request {
	req := r.Request
	if r.TimeoutSeconds > 0 {
		req.Timeout = time.Duration(r.TimeoutSeconds * float64(time.Second))
	}
	return req
}

// BatchRequest is the /v1/batch body.
type BatchRequest struct {
	Requests []SubmitRequest `json:"requests"`
}

// BatchResponse is the /v1/batch result.
type BatchResponse struct {
	Responses []gateway.Response `json:"responses"`
}

// UsageResponse is the /v1/usage result.
type UsageResponse struct {
	Days []ledger.DailyUsage `json:"days"`
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var body SubmitRequest
	if !s.decode(w, r, &body) {
		return
	}

	resp := s.gateway.Submit(r.Context(), body.toGateway())
	writeJSON(w, StatusFor(resp), resp)
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	var body BatchRequest
	if !s.decode(w, r, &body) {
		return
	}
	if len(body.Requests) > s.config.MaxBatchSize {
		writeError(w, http.StatusRequestEntityTooLarge, ErrorTypeInvalidRequest, CodeBatchTooLarge, "requests",
			fmt.Sprintf("batch has %d requests, limit is %d", len(body.Requests), s.config.MaxBatchSize))
		return
	}

	reqs := make([]gateway.Request, len(body.Requests))
	for i, sr := range body.Requests {
		reqs[i] = sr.toGateway()
	}
	writeJSON(w, http.StatusOK, BatchResponse{Responses: s.gateway.SubmitBatch(r.Context(), reqs)})
}

func (s *Server) handleEstimate(w http.ResponseWriter, r *http.Request) {
	var body SubmitRequest
	if !s.decode(w, r, &body) {
		return
	}
	if strings.TrimSpace(body.Prompt) == "" {
		writeError(w, http.StatusBadRequest, ErrorTypeInvalidRequest, CodeMissingField, "prompt", "prompt is required")
		return
	}

	est, err := s.gateway.Estimate(body.toGateway())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, ErrorTypeServiceUnavailable, CodeNoRoute, "", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, est)
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.gateway.GetStats())
}

// handleUsage serves ?since=YYYY-MM-DD&until=YYYY-MM-DD&feature=name.
func (s *Server) handleUsage(w http.ResponseWriter, r *http.Request) {
	if s.usage == nil {
		writeError(w, http.StatusNotFound, ErrorTypeNotFound, CodeUsageNotEnabled, "", "usage ledger is not enabled")
		return
	}

	q := r.URL.Query()
	var f ledger.Filter
	for _, p := range []struct {
		name string
		dst  *time.Time
	}{{"since", &f.Since}, {"until", &f.Until}} {
		v := q.Get(p.name)
		if v == "" {
			continue
		}
		t, err := time.Parse(time.DateOnly, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, ErrorTypeInvalidRequest, CodeInvalidValue, p.name, "dates use YYYY-MM-DD")
			return
		}
		*p.dst = t
	}
	f.Feature = q.Get("feature")

	days, err := s.usage.Daily(r.Context(), f)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "usage query failed", "error", err)
		writeError(w, http.StatusInternalServerError, ErrorTypeServerError, "", "", "usage query failed")
		return
	}
	if days == nil {
		days = []ledger.DailyUsage{}
	}
	writeJSON(w, http.StatusOK, UsageResponse{Days: days})
}

// decode reads a size-limited JSON body, writing the error response itself
// when it fails.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, ErrorTypeInvalidRequest, CodeBodyTooLarge, "",
				fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
			return false
		}
		writeError(w, http.StatusBadRequest, ErrorTypeInvalidRequest, CodeInvalidJSON, "", "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

// StatusFor maps a Response to its HTTP status code.
func StatusFor(resp gateway.Response) int {
	if resp.OK() {
		return http.StatusOK
	}
	switch resp.ErrorKind {
	case "invalid_request":
		return http.StatusBadRequest
	case "disabled":
		return http.StatusServiceUnavailable
	case "timeout":
		return http.StatusGatewayTimeout
	case "internal":
		return http.StatusInternalServerError
	default:
		return http.StatusBadGateway
	}
}
