package errors

import "net/http"

var ErrAwaitingReview = &Exception{
	Message:    "latest submission is awaiting review",
	StatusCode: http.StatusBadRequest,
}
