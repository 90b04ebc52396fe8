package errors

import "net/http"

var ErrEmptySubmission = &Exception{
	Message:    "submission must contain a message or at least one attachment",
	StatusCode: http.StatusBadRequest,
}
