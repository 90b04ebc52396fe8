package errors

import "net/http"

var ErrPayoutLockHeld = &Exception{
	Message:    "payout already in progress for this task",
	StatusCode: http.StatusConflict,
}
