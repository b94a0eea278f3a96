package remote

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a non-2xx answer of the remote content service.
type Error struct {
	StatusCode int
	Body       string
}

func (e *Error) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("remote: status %d", e.StatusCode)
	}
	return fmt.Sprintf("remote: status %d: %s", e.StatusCode, e.Body)
}

// IsNotFound reports whether err is a 404 of the remote service.
func IsNotFound(err error) bool {
	var re *Error
	return errors.As(err, &re) && re.StatusCode == http.StatusNotFound
}
