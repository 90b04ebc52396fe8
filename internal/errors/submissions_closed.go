package errors

import "net/http"

var ErrSubmissionsClosed = &Exception{
	Message:    "submissions are allowed only while the task is in progress",
	StatusCode: http.StatusBadRequest,
}
