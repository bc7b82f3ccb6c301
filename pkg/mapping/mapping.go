// Package mapping translates between the HTTP surface and the domain: error
// kinds to status codes, and JSON bodies in and out.
package mapping

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/chris/skill-swap/pkg/apperr"
	"github.com/chris/skill-swap/pkg/auth"
	"github.com/oapi-codegen/runtime"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// StatusFor maps an error kind onto an HTTP status code.
func StatusFor(err error) int {
	switch apperr.KindOf(err) {
	case apperr.ErrInvalidArgument:
		return http.StatusBadRequest
	case apperr.ErrUnauthenticated:
		return http.StatusUnauthorized
	case apperr.ErrForbidden:
		return http.StatusForbidden
	case apperr.ErrNotFound:
		return http.StatusNotFound
	case apperr.ErrConflict, apperr.ErrInvalidTransition:
		return http.StatusConflict
	case apperr.ErrUnavailable:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// ToErrorResponse names the error's kind in snake case, or "internal" when it
// has none. Internal errors do not leak their message.
func ToErrorResponse(err error) ErrorResponse {
	kind := apperr.KindOf(err)
	if kind == nil {
		return ErrorResponse{Error: "internal", Message: "internal server error"}
	}
	return ErrorResponse{
		Error:   strings.ReplaceAll(kind.Error(), " ", "_"),
		Message: err.Error(),
	}
}

// WriteJSON writes v as the JSON response body with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write response", "error", err)
	}
}

// WriteError writes err as an ErrorResponse with its mapped status.
func WriteError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		slog.Error("unhandled error", "error", err)
	}
	WriteJSON(w, status, ToErrorResponse(err))
}

// DecodeJSON decodes the request body into v. A malformed body is an
// invalid argument.
func DecodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			return apperr.Wrap(apperr.ErrInvalidArgument, err, "malformed JSON at offset %d", syntaxErr.Offset)
		}
		return apperr.Wrap(apperr.ErrInvalidArgument, err, "invalid request body")
	}
	return nil
}

// BindQuery binds the optional form-style query parameter name into dest.
// dest keeps its value when the parameter is absent.
func BindQuery(r *http.Request, name string, dest any) error {
	if err := runtime.BindQueryParameter("form", true, false, name, r.URL.Query(), dest); err != nil {
		return apperr.Wrap(apperr.ErrInvalidArgument, err, "invalid query parameter %s", name)
	}
	return nil
}

// UserID returns the authenticated caller.
func UserID(r *http.Request) (string, error) {
	id, ok := auth.UserID(r.Context())
	if !ok {
		return "", apperr.New(apperr.ErrUnauthenticated, "authentication required")
	}
	return id, nil
}
