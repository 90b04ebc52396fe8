package errors

import "net/http"

var ErrRevisionLimitReached = &Exception{
	Message:    "revision request limit reached",
	StatusCode: http.StatusConflict,
}
