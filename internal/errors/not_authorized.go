package errors

import "net/http"

var ErrNotAuthorized = &Exception{
	Message:    "not authorized to perform this action",
	StatusCode: http.StatusForbidden,
}
