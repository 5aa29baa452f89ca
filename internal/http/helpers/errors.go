package helpers

import (
	"encoding/json"
	"net/http"
)

// Standard Error Responses

var (
	ErrInvalidJSON         = &HTTPError{Code: "invalid_json", Message: "Invalid JSON format", Status: http.StatusBadRequest}
	ErrBadRequest          = &HTTPError{Code: "bad_request", Message: "Bad request", Status: http.StatusBadRequest}
	ErrUnauthorized        = &HTTPError{Code: "unauthorized", Message: "Unauthorized", Status: http.StatusUnauthorized}
	ErrForbidden           = &HTTPError{Code: "forbidden", Message: "Forbidden", Status: http.StatusForbidden}
	ErrNotFound            = &HTTPError{Code: "not_found", Message: "Not found", Status: http.StatusNotFound}
	ErrConflict            = &HTTPError{Code: "conflict", Message: "Conflict", Status: http.StatusConflict}
	ErrTooManyRequests     = &HTTPError{Code: "rate_limited", Message: "Too many requests", Status: http.StatusTooManyRequests}
	ErrInternalServerError = &HTTPError{Code: "internal_error", Message: "Internal server error", Status: http.StatusInternalServerError}
)

// HTTPError representa un error estándar de la API.
type HTTPError struct {
	Code    string `json:"code"`
	Message string `json:"error"`
	Detail  string `json:"detail,omitempty"`
	Status  int    `json:"-"`
}

func (e *HTTPError) Error() string {
	if e.Detail != "" {
		return e.Message + ": " + e.Detail
	}
	return e.Message
}

// WithDetail retorna una copia del error con detalle específico.
func (e *HTTPError) WithDetail(detail string) *HTTPError {
	return &HTTPError{Code: e.Code, Message: e.Message, Detail: detail, Status: e.Status}
}

// WriteError escribe el error como JSON en la respuesta.
func WriteError(w http.ResponseWriter, err error) {
	httpErr, ok := err.(*HTTPError)
	if !ok {
		httpErr = ErrInternalServerError
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(httpErr.Status)
	_ = json.NewEncoder(w).Encode(httpErr)
}
