package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"gopkg.in/yaml.v2"

	"leaseapi/internal/lease"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error string `json:"error" yaml:"error"`
}

// handleLeases lists the leases as a JSON array, or YAML with ?format=yaml
func (s *Server) handleLeases(w http.ResponseWriter, r *http.Request) {
	result, err := s.leases.List(r.Context())
	if err != nil {
		code := statusFor(err)
		s.log.Errorw("Failed to list leases", "error", err, "status", code)
		s.metrics.observeRequest(code)
		writeJSONError(w, err.Error(), code)
		return
	}

	s.metrics.observeListing(len(result.Records), result.Skipped)
	s.log.Debugf("Found %d DHCP leases", len(result.Records))

	data := lease.SerializeAll(result.Records)
	if r.URL.Query().Get("format") == "yaml" {
		s.metrics.observeRequest(responseYaml(w, data))
		return
	}
	s.metrics.observeRequest(responseJson(w, data))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	responseJson(w, map[string]string{"status": "ok"})
}

// statusFor maps lease errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, lease.ErrSourceUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func responseJson(w http.ResponseWriter, v interface{}) int {
	body, err := json.Marshal(v)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusInternalServerError)
		return http.StatusInternalServerError
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_, _ = w.Write(body)
	return http.StatusOK
}

func responseYaml(w http.ResponseWriter, v interface{}) int {
	body, err := yaml.Marshal(v)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusInternalServerError)
		return http.StatusInternalServerError
	}
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(body)
	return http.StatusOK
}

// writeJSONError writes a JSON error body with the given status
func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: message})
}
