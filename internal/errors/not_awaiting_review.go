package errors

import "net/http"

var ErrNotAwaitingReview = &Exception{
	Message:    "task has no submission awaiting review",
	StatusCode: http.StatusBadRequest,
}
