package errors

import "net/http"

var ErrTaskNotOpen = &Exception{
	Message:    "task is not open for payment",
	StatusCode: http.StatusBadRequest,
}
