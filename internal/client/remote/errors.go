package remote

import "fmt"

// APIError is returned whenever the table backend reports a non-success
// status code in its response envelope. Callers treat any APIError as
// transient-unless-proven-otherwise.
type APIError struct {
	Code int
	Msg  string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("remote api error %d: %s", e.Code, e.Msg)
}
