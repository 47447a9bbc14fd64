package domain

import (
	"fmt"
	"strings"
)

type ValidateError struct {
	Property string   `json:"property"`
	Messages []string `json:"messages"`
}

type ValidateResult struct {
	Errors []ValidateError `json:"errors,omitempty"`
}

func (r ValidateResult) Valid() bool { return len(r.Errors) == 0 }

func (r *ValidateResult) Add(prop, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	for i := range r.Errors {
		if r.Errors[i].Property == prop {
			r.Errors[i].Messages = append(r.Errors[i].Messages, msg)
			return
		}
	}
	r.Errors = append(r.Errors, ValidateError{Property: prop, Messages: []string{msg}})
}

// ValidationError est renvoyée par insert/update quand la validation échoue.
type ValidationError struct {
	Definition string
	Result     ValidateResult
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	parts := make([]string, 0, len(e.Result.Errors))
	for _, ve := range e.Result.Errors {
		parts = append(parts, ve.Property+": "+strings.Join(ve.Messages, ", "))
	}
	return "validation failed for " + e.Definition + ": " + strings.Join(parts, "; ")
}
