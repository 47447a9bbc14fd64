package ports

import "errors"

var ErrNotFound = errors.New("not found")

var ErrConflict = errors.New("conflict")

// ErrLocked: l'entité est verrouillée par un autre LoadAndLock.
var ErrLocked = errors.New("locked")

var ErrUnknownDefinition = errors.New("unknown entity definition")

var ErrUnsupportedQuery = errors.New("unsupported query")
