package errors

import "net/http"

var ErrNoPayoutDestination = &Exception{
	Message:    "freelancer has not provided a payment handle",
	StatusCode: http.StatusUnprocessableEntity,
}
