package ports

import "github.com/go-faster/errors"

var (
	// ErrInvalidInput rejects a request before any network call is made.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUpstreamFailure means a mandatory data source failed; always fatal to an audit.
	ErrUpstreamFailure = errors.New("upstream failure")
	// ErrSuggestionsDisabled is returned by a generator that has no credentials configured.
	ErrSuggestionsDisabled = errors.New("suggestions disabled")

	ErrReportNotFound = errors.New("report not found")
	ErrJobNotFound    = errors.New("job not found")
)

// UpstreamError carries the name of the data source that failed.
type UpstreamError struct {
	Source string
	Err    error
}

func (e *UpstreamError) Error() string { return e.Source + ": " + e.Err.Error() }

func (e *UpstreamError) Unwrap() error { return e.Err }

func (e *UpstreamError) Is(target error) bool { return target == ErrUpstreamFailure }

// Upstream wraps err as an UpstreamError unless it already is one.
func Upstream(source string, err error) error {
	if err == nil {
		return nil
	}
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return err
	}
	return &UpstreamError{Source: source, Err: err}
}

// InvalidInput wraps a validation message so errors.Is(err, ErrInvalidInput) holds.
func InvalidInput(msg string) error {
	return errors.Wrap(ErrInvalidInput, msg)
}
