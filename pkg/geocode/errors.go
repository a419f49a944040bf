package geocode

import (
	"errors"
	"fmt"
)

// UpstreamUnavailableError means the transient failure class exhausted
// its retry budget. The query may succeed on a later run; callers
// should fall back rather than abort.
type UpstreamUnavailableError struct {
	Query string
	Err   error
}

func (e *UpstreamUnavailableError) Error() string {
	return fmt.Sprintf("geocode: upstream unavailable for %q: %v", e.Query, e.Err)
}

func (e *UpstreamUnavailableError) Unwrap() error { return e.Err }

// QueryRejectedError means the upstream rejected the query with a
// non-transient status. Retrying the same query will not succeed.
type QueryRejectedError struct {
	Query      string
	StatusCode int
}

func (e *QueryRejectedError) Error() string {
	return fmt.Sprintf("geocode: query %q rejected with status %d", e.Query, e.StatusCode)
}

// IsUpstreamUnavailable reports whether err is an exhausted-retries failure.
func IsUpstreamUnavailable(err error) bool {
	var ue *UpstreamUnavailableError
	return errors.As(err, &ue)
}

// IsQueryRejected reports whether err is a non-transient rejection.
func IsQueryRejected(err error) bool {
	var qe *QueryRejectedError
	return errors.As(err, &qe)
}
