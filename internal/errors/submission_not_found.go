package errors

import "net/http"

var ErrSubmissionNotFound = &Exception{
	Message:    "submission not found",
	StatusCode: http.StatusNotFound,
}
