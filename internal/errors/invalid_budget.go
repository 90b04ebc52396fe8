package errors

import "net/http"

var ErrInvalidBudget = &Exception{
	Message:    "task budget must be greater than zero",
	StatusCode: http.StatusBadRequest,
}
