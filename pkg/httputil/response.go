// Package httputil provides HTTP handler utilities for consistent error
// handling, JSON encoding/decoding, and request parsing.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/luxtravel/portico/pkg/errs"
)

// Envelope is the standard success response shape: {success, data}.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// ErrorBody is the standard error response shape.
type ErrorBody struct {
	Success bool              `json:"success"`
	Error   string            `json:"error"`
	Code    string            `json:"code,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes a 200 response wrapping data in the success envelope
func WriteSuccess(w http.ResponseWriter, data interface{}) error {
	return WriteJSON(w, http.StatusOK, Envelope{Success: true, Data: data})
}

// WriteCreated writes a 201 response wrapping data in the success envelope
func WriteCreated(w http.ResponseWriter, data interface{}) error {
	return WriteJSON(w, http.StatusCreated, Envelope{Success: true, Data: data})
}

// WriteMessage writes a 200 response carrying only a message
func WriteMessage(w http.ResponseWriter, message string) error {
	return WriteJSON(w, http.StatusOK, Envelope{Success: true, Message: message})
}

// WriteErrorMessage writes a JSON error response with a custom message
func WriteErrorMessage(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorBody{Error: message, Code: code})
}

// WriteError maps a typed error from pkg/errs to its HTTP status and stable
// code. Unrecognized errors become opaque 500s; their detail stays server-side.
func WriteError(w http.ResponseWriter, err error) {
	var nf *errs.NotFoundError
	if errors.As(err, &nf) {
		code := nf.Code
		if code == "" {
			code = "NOT_FOUND"
		}
		WriteErrorMessage(w, http.StatusNotFound, code, nf.Message)
		return
	}

	var ve *errs.ValidationError
	if errors.As(err, &ve) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(ErrorBody{
			Error:  ve.Message,
			Code:   "VALIDATION_ERROR",
			Fields: ve.Fields,
		})
		return
	}

	var fe *errs.ForbiddenError
	if errors.As(err, &fe) {
		WriteErrorMessage(w, http.StatusForbidden, "FORBIDDEN", fe.Message)
		return
	}

	var ae *errs.AuthenticationError
	if errors.As(err, &ae) {
		WriteErrorMessage(w, http.StatusUnauthorized, "UNAUTHORIZED", ae.Message)
		return
	}

	WriteErrorMessage(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
}

// WriteBadRequest writes a bad request error (400)
func WriteBadRequest(w http.ResponseWriter, message string) {
	WriteErrorMessage(w, http.StatusBadRequest, "VALIDATION_ERROR", message)
}

// WriteUnauthorized writes an unauthorized error (401)
func WriteUnauthorized(w http.ResponseWriter, message string) {
	WriteErrorMessage(w, http.StatusUnauthorized, "UNAUTHORIZED", message)
}

// WriteForbidden writes a forbidden error (403)
func WriteForbidden(w http.ResponseWriter, message string) {
	WriteErrorMessage(w, http.StatusForbidden, "FORBIDDEN", message)
}

// WriteNotFound writes a not found error (404)
func WriteNotFound(w http.ResponseWriter, code, message string) {
	WriteErrorMessage(w, http.StatusNotFound, code, message)
}

// WriteTooManyRequests writes a rate limit error (429)
func WriteTooManyRequests(w http.ResponseWriter, message string) {
	WriteErrorMessage(w, http.StatusTooManyRequests, "RATE_LIMITED", message)
}
