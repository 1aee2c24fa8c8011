// AngelaMos | 2026
// response.go

package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if body == nil {
		return
	}

	//nolint:errcheck // best-effort response write
	_ = json.NewEncoder(w).Encode(body)
}

func OK(w http.ResponseWriter, body any) {
	WriteJSON(w, http.StatusOK, body)
}

func Created(w http.ResponseWriter, body any) {
	WriteJSON(w, http.StatusCreated, body)
}

func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// JSONError renders an error as a {"detail": "<TAG>", ...} body. AppError
// extras (required, resource, retry_after) are flattened into the body so
// the wire shape matches what clients key on.
func JSONError(w http.ResponseWriter, err error) {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		appErr = NewAppError(err, "", http.StatusInternalServerError, TagInternal)
	}

	body := map[string]any{
		"detail": appErr.Detail,
	}
	if appErr.Message != "" {
		body["message"] = appErr.Message
	}
	for k, v := range appErr.Extra {
		body[k] = v
	}

	if retry, ok := appErr.Extra["retry_after"].(int); ok {
		w.Header().Set("Retry-After", strconv.Itoa(retry))
	}

	WriteJSON(w, appErr.Status, body)
}

func BadRequest(w http.ResponseWriter, message string) {
	JSONError(w, NewAppError(
		ErrInvalidInput,
		message,
		http.StatusBadRequest,
		TagBadRequest,
	))
}

func Unauthorized(w http.ResponseWriter, message string) {
	if message == "" {
		message = "authentication required"
	}
	JSONError(w, UnauthorizedError(message))
}

func Forbidden(w http.ResponseWriter, message string) {
	JSONError(w, ForbiddenError(message))
}

func NotFound(w http.ResponseWriter, resource string) {
	JSONError(w, NotFoundError(resource))
}

// InternalServerError logs the underlying error with the request correlation
// id and renders an opaque INTERNAL body. Stack details never reach clients.
func InternalServerError(w http.ResponseWriter, err error) {
	slog.Error("internal error", "error", err)
	JSONError(w, NewAppError(
		err,
		"internal server error",
		http.StatusInternalServerError,
		TagInternal,
	))
}

func FormatValidationError(err error) string {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return "invalid request"
	}

	msgs := make([]string, 0, len(validationErrs))
	for _, fe := range validationErrs {
		msgs = append(msgs, fmt.Sprintf(
			"%s failed on %s",
			strings.ToLower(fe.Field()),
			fe.Tag(),
		))
	}

	return strings.Join(msgs, "; ")
}
