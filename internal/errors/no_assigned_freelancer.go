package errors

import "net/http"

var ErrNoAssignedFreelancer = &Exception{
	Message:    "no freelancer assigned for payout",
	StatusCode: http.StatusUnprocessableEntity,
}
