package http

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"notes/app/internal/notes"
	applog "notes/app/internal/platform/log"
)

const (
	errorTypeDatabase = "database_error"
	errorTypeInternal = "internal_server_error"

	databaseErrorMessage = "A database error occurred. Please try again later."
	internalErrorMessage = "An unexpected error occurred. Please try again later."

	requiredPropertyPrefix = "expected required property "
	requiredPropertySuffix = " to be present"
	missingBodyMessage     = "request body is required"
	fieldRequiredMessage   = "Field required"
)

// ErrorBody is the JSON envelope for every error response. Detail is either a
// message string or a list of FieldError values. Type is only set on 5xx responses.
type ErrorBody struct {
	status int
	Detail any    `json:"detail"`
	Type   string `json:"type,omitempty"`
}

func (e *ErrorBody) Error() string {
	if msg, ok := e.Detail.(string); ok {
		return msg
	}
	return stdhttp.StatusText(e.status)
}

// GetStatus satisfies huma.StatusError.
func (e *ErrorBody) GetStatus() int {
	return e.status
}

// FieldError locates a single rejected input value.
type FieldError struct {
	Loc []string `json:"loc"`
	Msg string   `json:"msg"`
}

func init() {
	huma.NewError = newErrorBody
}

// newErrorBody replaces huma's problem+json errors so framework raised failures
// share the envelope produced by the handlers.
func newErrorBody(status int, msg string, errs ...error) huma.StatusError {
	switch {
	case status >= stdhttp.StatusInternalServerError:
		return internalError()
	// Huma reports a missing or unreadable body as a 400; clients get the same
	// field error shape as any other validation failure.
	case status == stdhttp.StatusUnprocessableEntity, status == stdhttp.StatusBadRequest:
		return &ErrorBody{
			status: stdhttp.StatusUnprocessableEntity,
			Detail: fieldErrorsFromHuma(msg, errs),
		}
	default:
		return &ErrorBody{status: status, Detail: msg}
	}
}

func fieldErrorsFromHuma(msg string, errs []error) []FieldError {
	fields := make([]FieldError, 0, len(errs))
	for _, err := range errs {
		if err == nil {
			continue
		}

		var detail *huma.ErrorDetail
		if errors.As(err, &detail) {
			fields = append(fields, fieldErrorFromDetail(detail))
			continue
		}

		fields = append(fields, FieldError{Loc: []string{"body"}, Msg: err.Error()})
	}

	if len(fields) == 0 {
		if msg == missingBodyMessage {
			msg = fieldRequiredMessage
		}
		fields = append(fields, FieldError{Loc: []string{"body"}, Msg: msg})
	}

	return fields
}

func fieldErrorFromDetail(detail *huma.ErrorDetail) FieldError {
	loc := splitLocation(detail.Location)
	message := detail.Message

	if strings.HasPrefix(message, requiredPropertyPrefix) && strings.HasSuffix(message, requiredPropertySuffix) {
		name := strings.TrimSuffix(strings.TrimPrefix(message, requiredPropertyPrefix), requiredPropertySuffix)
		loc = append(loc, name)
		message = fieldRequiredMessage
	}
	if message == missingBodyMessage {
		message = fieldRequiredMessage
	}

	return FieldError{Loc: loc, Msg: message}
}

func splitLocation(location string) []string {
	if location == "" {
		return []string{"body"}
	}
	return strings.Split(location, ".")
}

func internalError() *ErrorBody {
	return &ErrorBody{
		status: stdhttp.StatusInternalServerError,
		Detail: internalErrorMessage,
		Type:   errorTypeInternal,
	}
}

func databaseError() *ErrorBody {
	return &ErrorBody{
		status: stdhttp.StatusInternalServerError,
		Detail: databaseErrorMessage,
		Type:   errorTypeDatabase,
	}
}

func notFound(id int64) *ErrorBody {
	return &ErrorBody{
		status: stdhttp.StatusNotFound,
		Detail: fmt.Sprintf("Note with ID %d not found", id),
	}
}

// translateError maps a failure raised while serving a request onto its
// client-facing envelope. Internal details never reach the response body.
func (s *Server) translateError(ctx context.Context, err error, action string) error {
	var validationErr *notes.ValidationError
	if errors.As(err, &validationErr) {
		return validationFailure(validationErr)
	}

	var storageErr *notes.StorageError
	if errors.As(err, &storageErr) {
		s.recordError(ctx, err, "database error while "+action, logrus.Fields{"operation": storageErr.Op})
		return databaseError()
	}

	s.recordError(ctx, err, "unexpected error while "+action, nil)
	return internalError()
}

func validationFailure(err *notes.ValidationError) *ErrorBody {
	fields := make([]FieldError, 0, len(err.Violations))
	for _, violation := range err.Violations {
		fields = append(fields, FieldError{
			Loc: []string{violationSource(violation.Field), violation.Field},
			Msg: violation.Reason,
		})
	}

	return &ErrorBody{status: stdhttp.StatusUnprocessableEntity, Detail: fields}
}

func violationSource(field string) string {
	switch field {
	case "skip", "limit":
		return "query"
	default:
		return "body"
	}
}

func (s *Server) recordError(ctx context.Context, err error, message string, fields logrus.Fields) {
	if err == nil {
		return
	}

	if s.logger != nil {
		entry := s.logger.WithField("error", eris.ToString(err, false))
		if fields != nil {
			entry = entry.WithFields(fields)
		}
		if requestID := RequestIDFromContext(ctx); requestID != "" {
			entry = entry.WithField("request_id", requestID)
		}
		entry.Error(message)
	}

	applog.CaptureError(ctx, s.sentry, err)
}
