package errors

import "net/http"

var ErrAlreadyAccepted = &Exception{
	Message:    "submission has already been accepted",
	StatusCode: http.StatusConflict,
}
