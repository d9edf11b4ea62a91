package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/fjod/storefront/internal/client"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// handleClientError converts an upstream failure into a response without
// leaking its transport details.
func handleClientError(w http.ResponseWriter, err error) {
	var apiErr *client.APIError
	switch {
	case errors.Is(err, client.ErrAuthenticationRequired):
		respondError(w, http.StatusUnauthorized, "AUTHENTICATION_REQUIRED", "your session has expired, please sign in again")
	case errors.Is(err, client.ErrTimeout):
		respondError(w, http.StatusGatewayTimeout, "TIMEOUT", "the request took too long, please try again")
	case errors.Is(err, client.ErrUnavailable):
		respondError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "the service is temporarily unavailable")
	case errors.Is(err, client.ErrRejected) && errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound:
		respondError(w, http.StatusNotFound, "not_found", "not found")
	case errors.Is(err, client.ErrRejected):
		respondError(w, http.StatusBadRequest, "rejected", "the request was rejected")
	default:
		log.Printf("upstream call failed: %v", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
