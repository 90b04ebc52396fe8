package errors

import "net/http"

var ErrPaymentNotCaptured = &Exception{
	Message:    "payment has not been captured for this task",
	StatusCode: http.StatusConflict,
}
