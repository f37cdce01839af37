package request

import (
	"errors"
	"fmt"
	"net/http"
)

// StatusError reports a non-retryable HTTP error status.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("api error: status %d (%s)", e.Code, e.URL)
}

// IsNotFound reports whether err is an HTTP 404 response.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == http.StatusNotFound
}
