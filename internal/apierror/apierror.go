package apierror

import (
	"errors"
	"fmt"
)

// Fallback message keys, translated client-side by internal/i18n.
const (
	KeyUnknownError       = "errors.unknownError"
	KeyUnknownServerShape = "errors.unknownServerShape"
	KeyValidationFailed   = "errors.validationFailed"
	KeyUnauthorized       = "errors.unauthorized"
	KeyAlreadyLoggedIn    = "errors.alreadyLoggedIn"
)

// Kind tags which of the known backend error shapes an Error was built from.
type Kind string

const (
	KindValidation  Kind = "validation"
	KindMultiDetail Kind = "multiDetail"
	KindSingle      Kind = "single"
	KindUnknown     Kind = "unknown"
)

// FieldError reports one invalid input field and its problem messages.
type FieldError struct {
	Field    string   `json:"field"`
	Messages []string `json:"messages"`
}

// Error is the single canonical shape every backend failure is converted
// into before anything downstream may look at it. Callers match on Kind,
// StatusCode or Message; they never parse raw backend payloads.
type Error struct {
	StatusCode int          `json:"statusCode"`
	Message    string       `json:"message"`
	ErrorCode  string       `json:"errorCode,omitempty"`
	Details    []string     `json:"details,omitempty"`
	Fields     []FieldError `json:"fields,omitempty"`
	Kind       Kind         `json:"-"`
}

func (e *Error) Error() string {
	if e.ErrorCode != "" {
		return fmt.Sprintf("backend error %d (%s): %s", e.StatusCode, e.ErrorCode, e.Message)
	}
	return fmt.Sprintf("backend error %d: %s", e.StatusCode, e.Message)
}

// Normalize converts an arbitrary decoded backend payload into an *Error.
// It is total: no input shape can make it fail, which is what lets every
// call site share one catch path.
func Normalize(raw any) *Error {
	obj, ok := raw.(map[string]any)
	if !ok || obj == nil {
		return &Error{StatusCode: 500, Message: KeyUnknownError, Kind: KindUnknown}
	}

	statusCode := intField(obj, "statusCode", 500)
	errorCode, _ := obj["errorCode"].(string)
	message := obj["message"]

	// Field-level validation: 422 with message = [{field, messages}].
	if statusCode == 422 {
		if fields, ok := asFieldErrors(message); ok {
			details := make([]string, 0, len(fields))
			for _, f := range fields {
				details = append(details, f.Messages...)
			}
			first := KeyValidationFailed
			if len(details) > 0 {
				first = details[0]
			}
			return &Error{
				StatusCode: statusCode,
				Message:    first,
				Details:    details,
				Fields:     fields,
				Kind:       KindValidation,
			}
		}
	}

	// Flat list of message strings.
	if list, ok := asStringList(message); ok && len(list) > 0 {
		return &Error{
			StatusCode: statusCode,
			Message:    list[0],
			Details:    list,
			Kind:       KindMultiDetail,
		}
	}

	if msg, ok := message.(string); ok {
		return &Error{
			StatusCode: statusCode,
			Message:    msg,
			ErrorCode:  errorCode,
			Kind:       KindSingle,
		}
	}

	return &Error{StatusCode: statusCode, Message: KeyUnknownServerShape, Kind: KindUnknown}
}

// From returns err as an *Error, normalizing transport and other
// non-backend failures into the generic 500 shape.
func From(err error) *Error {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return &Error{StatusCode: 500, Message: KeyUnknownError, Kind: KindUnknown}
}

// Unauthorized is the guard failure for privileged actions hit without a
// valid session. Raised before any backend round trip is attempted.
func Unauthorized() *Error {
	return &Error{StatusCode: 401, Message: KeyUnauthorized, Kind: KindSingle}
}

// AlreadyAuthenticated is the guard failure for anonymous-only actions
// hit with a live session.
func AlreadyAuthenticated() *Error {
	return &Error{StatusCode: 409, Message: KeyAlreadyLoggedIn, Kind: KindSingle}
}

func IsUnauthorized(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.StatusCode == 401 && apiErr.Message == KeyUnauthorized
}

func intField(obj map[string]any, key string, fallback int) int {
	switch v := obj[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	}
	return fallback
}

func asStringList(v any) ([]string, bool) {
	items, ok := v.([]any)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}

func asFieldErrors(v any) ([]FieldError, bool) {
	items, ok := v.([]any)
	if !ok || len(items) == 0 {
		return nil, false
	}

	fields := make([]FieldError, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, false
		}
		name, ok := obj["field"].(string)
		if !ok {
			return nil, false
		}
		rawMessages, ok := obj["messages"].([]any)
		if !ok {
			return nil, false
		}
		messages := make([]string, 0, len(rawMessages))
		for _, m := range rawMessages {
			s, ok := m.(string)
			if !ok {
				return nil, false
			}
			messages = append(messages, s)
		}
		fields = append(fields, FieldError{Field: name, Messages: messages})
	}
	return fields, true
}
