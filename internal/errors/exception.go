package errors

import (
	"errors"
	"net/http"
)

// Exception is an application error that knows the HTTP status it maps to.
// Handlers translate any other error to a 500.
type Exception struct {
	Message    string
	StatusCode int
}

func (e *Exception) Error() string {
	return e.Message
}

func StatusCode(err error) int {
	var appErr *Exception
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}
