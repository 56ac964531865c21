package validation

import (
	"strings"
)

// FieldError is one violated rule
type FieldError struct {
	Field   string
	Message string
}

// Errors collects every violated rule of a form, in check order
type Errors []FieldError

func (e Errors) Error() string {
	msgs := make([]string, len(e))
	for i, fe := range e {
		msgs[i] = fe.Message
	}
	return strings.Join(msgs, "; ")
}

// ValidationFailed marks the error as a client-side validation failure
func (e Errors) ValidationFailed() bool {
	return len(e) > 0
}

// Field returns the first message recorded for field
func (e Errors) Field(name string) string {
	for _, fe := range e {
		if fe.Field == name {
			return fe.Message
		}
	}
	return ""
}

// Messages returns every message in order
func (e Errors) Messages() []string {
	out := make([]string, len(e))
	for i, fe := range e {
		out[i] = fe.Message
	}
	return out
}

// Err returns nil when nothing failed, so callers can return it directly
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

func (e *Errors) add(field, msg string) {
	*e = append(*e, FieldError{Field: field, Message: msg})
}
