package constants

type TaskStatus string

const (
	StatusOpen                 TaskStatus = "open"
	StatusInProgress           TaskStatus = "in_progress"
	StatusSubmitted            TaskStatus = "submitted"
	StatusRevisionLimitReached TaskStatus = "revision_limit_reached"
	StatusCompleted            TaskStatus = "completed"
	StatusExpired              TaskStatus = "expired"
)

type SubmissionStatus string

const (
	SubmissionSubmitted         SubmissionStatus = "submitted"
	SubmissionRevisionRequested SubmissionStatus = "revision_requested"
	SubmissionAccepted          SubmissionStatus = "accepted"
)
