package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/outing/internal/ratelimit"
)

// maxBodyBytes caps request bodies accepted by the JSON handlers
const maxBodyBytes = 1 << 20

// RequireMethod validates that the HTTP request uses the specified method.
// Returns true if the method matches, false otherwise (and writes error response).
func RequireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return false
	}
	return true
}

// WriteJSON writes a JSON response with the specified status code and data.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

// WriteError writes a standard error JSON response.
func WriteError(w http.ResponseWriter, statusCode int, message string) error {
	return WriteJSON(w, statusCode, map[string]string{
		"status": "error",
		"error":  message,
	})
}

// WriteServiceError maps a service error to a status code.
// Queue exhaustion is 429, caller cancellation 499 and timeouts 504.
func WriteServiceError(w http.ResponseWriter, err error) error {
	switch {
	case errors.Is(err, ratelimit.ErrQueueFull):
		w.Header().Set("Retry-After", "60")
		return WriteError(w, http.StatusTooManyRequests, "Too many pending lookups, try again shortly")
	case errors.Is(err, context.Canceled):
		return WriteError(w, 499, "Request cancelled")
	case errors.Is(err, context.DeadlineExceeded):
		return WriteError(w, http.StatusGatewayTimeout, "Request timed out")
	default:
		return WriteError(w, http.StatusInternalServerError, err.Error())
	}
}

// DecodeJSON reads a JSON body into v and validates its struct tags.
// Unknown fields are rejected.
func DecodeJSON(r *http.Request, validate *validator.Validate, v interface{}) error {
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("invalid request: %s", describeValidation(err))
	}
	return nil
}

func describeValidation(err error) string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err.Error()
	}
	parts := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		parts = append(parts, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}
