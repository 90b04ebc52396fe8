package errors

import "net/http"

var ErrAwaitingFinalDecision = &Exception{
	Message:    "revision limit reached, awaiting the uploader's final decision",
	StatusCode: http.StatusBadRequest,
}
