package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/koinsera/botadmin/internal/models"
)

// Error taxonomy. Match with errors.Is.
var (
	ErrTransport    = errors.New("backend unreachable")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrValidation   = models.ErrInvalid
	ErrServer       = errors.New("server error")
	ErrNoChanges    = errors.New("no changes to apply")
)

// TransportError wraps a failure to reach the backend at all
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

// Unwrap exposes both ErrTransport and the cause (e.g. context.Canceled)
func (e *TransportError) Unwrap() []error {
	return []error{ErrTransport, e.Err}
}

// APIError is a non-success response from the backend
type APIError struct {
	Op         string
	StatusCode int
	Message    string
	Fields     []models.FieldError
}

func (e *APIError) Error() string {
	switch {
	case e.StatusCode >= 500:
		return fmt.Sprintf("failed to %s: the server encountered an error (status %d)", e.Op, e.StatusCode)
	case len(e.Fields) > 0:
		parts := make([]string, 0, len(e.Fields))
		for _, f := range e.Fields {
			parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Message))
		}
		return fmt.Sprintf("failed to %s (status %d): %s", e.Op, e.StatusCode, strings.Join(parts, "; "))
	case e.Message != "":
		return fmt.Sprintf("failed to %s (status %d): %s", e.Op, e.StatusCode, e.Message)
	default:
		return fmt.Sprintf("failed to %s (status %d)", e.Op, e.StatusCode)
	}
}

// Is maps the status code onto the error taxonomy
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	case ErrForbidden:
		return e.StatusCode == http.StatusForbidden
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrValidation:
		return e.StatusCode == http.StatusBadRequest || e.StatusCode == http.StatusUnprocessableEntity
	case ErrServer:
		return e.StatusCode >= 500
	}
	return false
}

// Unwrap exposes field errors as *models.ValidationError for errors.As
func (e *APIError) Unwrap() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return &models.ValidationError{Fields: e.Fields}
}

// errorBody covers the error envelopes the backend emits:
// {"detail": "..."}, {"detail": [{"loc": [...], "msg": "..."}]},
// {"error": "..."} and {"message": "..."}.
type errorBody struct {
	Detail  json.RawMessage `json:"detail"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
}

type detailItem struct {
	Loc []interface{} `json:"loc"`
	Msg string        `json:"msg"`
}

// newAPIError builds an APIError from a failed response body
func newAPIError(op string, status int, body []byte) *APIError {
	apiErr := &APIError{Op: op, StatusCode: status}
	apiErr.Message, apiErr.Fields = parseErrorBody(body)
	return apiErr
}

func parseErrorBody(body []byte) (string, []models.FieldError) {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		return strings.TrimSpace(string(body)), nil
	}

	if len(eb.Detail) > 0 {
		var detail string
		if err := json.Unmarshal(eb.Detail, &detail); err == nil {
			return detail, nil
		}

		var items []detailItem
		if err := json.Unmarshal(eb.Detail, &items); err == nil {
			fields := make([]models.FieldError, 0, len(items))
			for _, item := range items {
				fields = append(fields, models.FieldError{
					Field:   fieldFromLoc(item.Loc),
					Message: item.Msg,
				})
			}
			return "", fields
		}
	}

	if eb.Error != "" {
		return eb.Error, nil
	}
	return eb.Message, nil
}

// fieldFromLoc turns ["body", "email"] into "email"
func fieldFromLoc(loc []interface{}) string {
	parts := make([]string, 0, len(loc))
	for i, p := range loc {
		s := fmt.Sprint(p)
		if i == 0 && (s == "body" || s == "query" || s == "path") && len(loc) > 1 {
			continue
		}
		parts = append(parts, s)
	}
	if len(parts) == 0 {
		return "request"
	}
	return strings.Join(parts, ".")
}

// errorEnvelope detects a success response that actually carries
// {"error": "..."}. The backend does this for updates of missing rows.
func errorEnvelope(op string, body []byte) error {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(body, &probe); err != nil || len(probe) != 1 {
		return nil
	}
	raw, ok := probe["error"]
	if !ok {
		return nil
	}
	var msg string
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil
	}

	status := http.StatusBadRequest
	if strings.Contains(strings.ToLower(msg), "not found") {
		status = http.StatusNotFound
	}
	return &APIError{Op: op, StatusCode: status, Message: msg}
}
