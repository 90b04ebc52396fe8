package errors

import "net/http"

var ErrAlreadyPaid = &Exception{
	Message:    "payout already completed for this task",
	StatusCode: http.StatusConflict,
}
