package app

import (
	"github.com/Guilhem-Bonnet/radiko-planner/internal/ports"
)

var (
	ErrNotFound          = ports.ErrNotFound
	ErrConflict          = ports.ErrConflict
	ErrLocked            = ports.ErrLocked
	ErrUnknownDefinition = ports.ErrUnknownDefinition
	ErrUnsupportedQuery  = ports.ErrUnsupportedQuery
)

// CodedError porte un code d'erreur stable, renvoyé tel quel par l'API.
//
// Exemples de codes: invalid_params, unknown_station, unknown_schedule.
type CodedError struct {
	Code    string
	Message string
	Err     error
}

func (e *CodedError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return e.Message
	}
	if e.Message == "" {
		return e.Err.Error()
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *CodedError) Unwrap() error { return e.Err }

func invalidParams(msg string) error {
	return &CodedError{Code: "invalid_params", Message: msg}
}
