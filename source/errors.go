package source

import "errors"

var (
	ErrEmptySource       = errors.New("source: no input source given")
	ErrUnsupportedScheme = errors.New("source: unsupported URI scheme")
	ErrNotFound          = errors.New("source: not found")
	ErrAccessDenied      = errors.New("source: access denied")
	ErrHTTPStatus        = errors.New("source: unexpected HTTP status")
)

// retryable reports whether a fetch error may go away on its own.
func retryable(err error) bool {
	return !errors.Is(err, ErrNotFound) &&
		!errors.Is(err, ErrAccessDenied) &&
		!errors.Is(err, ErrUnsupportedScheme) &&
		!errors.Is(err, ErrEmptySource)
}
