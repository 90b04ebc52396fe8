package errors

import "net/http"

var ErrOptimisticLock = &Exception{
	Message:    "task was modified concurrently, retry",
	StatusCode: http.StatusConflict,
}
