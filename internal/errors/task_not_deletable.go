package errors

import "net/http"

var ErrTaskNotDeletable = &Exception{
	Message:    "task can only be deleted while open and unpaid",
	StatusCode: http.StatusBadRequest,
}
