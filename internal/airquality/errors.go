package airquality

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by Store lookups that match no rows.
var ErrNotFound = errors.New("no matching air quality data")

// ErrInternal marks failures that must surface as a generic 500.
var ErrInternal = errors.New("internal error")

// ValidationError is a rejected request parameter. Message is the text
// sent to the client; Body, when set, replaces the default {"error": ...}.
type ValidationError struct {
	Message string
	Body    any
}

func (e *ValidationError) Error() string { return e.Message }

// QueriedParams echoes the /api/datos triple back in a 404.
type QueriedParams struct {
	Station  int64 `json:"estacion"`
	Year     int   `json:"anio"`
	Exposure int64 `json:"exposicion"`
}

type NotFoundError struct {
	Message    string
	Suggestion string
	Params     *QueriedParams
}

func (e *NotFoundError) Error() string { return e.Message }

func internalf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInternal, fmt.Sprintf(format, args...))
}
