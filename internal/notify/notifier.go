package notify

import (
	"github.com/rs/zerolog/log"

	model "task-market.com/task-market/internal/models"
)

// Notifier is the external notification dispatcher collaborator. Calls are
// fire-and-forget: they run after the state change committed and must never
// block or fail the primary operation.
type Notifier interface {
	TaskAssigned(task *model.Task)
	SubmissionReceived(task *model.Task, sub *model.Submission)
	SubmissionDecision(task *model.Task, sub *model.Submission)
	PayoutCompleted(task *model.Task)
}

// Dispatch runs fn on its own goroutine and contains any panic, so a broken
// notifier cannot take down or roll back the operation that triggered it.
func Dispatch(fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error().Interface("panic", r).Msg("notification dispatch panicked")
			}
		}()
		fn()
	}()
}

// LogNotifier is the default dispatcher: it records the notification and
// relies on an external delivery pipeline reading the log stream.
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) TaskAssigned(task *model.Task) {
	log.Info().
		Str("task_id", task.ID).
		Str("freelancer_id", task.AssignedTo).
		Msg("notify: task assigned")
}

func (n *LogNotifier) SubmissionReceived(task *model.Task, sub *model.Submission) {
	log.Info().
		Str("task_id", task.ID).
		Int("version", sub.Version).
		Msg("notify: submission received")
}

func (n *LogNotifier) SubmissionDecision(task *model.Task, sub *model.Submission) {
	log.Info().
		Str("task_id", task.ID).
		Int("version", sub.Version).
		Str("decision", string(sub.Status)).
		Msg("notify: submission decision")
}

func (n *LogNotifier) PayoutCompleted(task *model.Task) {
	log.Info().
		Str("task_id", task.ID).
		Str("payout_id", task.Payment.PayoutID).
		Msg("notify: payout completed")
}
