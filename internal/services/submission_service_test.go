package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"task-market.com/task-market/internal/constants"
	apperrors "task-market.com/task-market/internal/errors"
)

func TestSubmissionVersionsIncrementFromOne(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	task := newCapturedTask(t, f, 500)

	for want := 1; want <= 3; want++ {
		sub, err := f.submissions.CreateSubmission(ctx, task.ID, f.freelancer.ID, "draft", nil)
		require.NoError(t, err)
		assert.Equal(t, want, sub.Version)

		// A duplicate attempt while the task awaits review must not
		// consume a version.
		_, err = f.submissions.CreateSubmission(ctx, task.ID, f.freelancer.ID, "again", nil)
		require.ErrorIs(t, err, apperrors.ErrAwaitingReview)

		if want < 3 {
			require.NoError(t, f.submissions.RequestRevision(ctx, sub.ID, f.uploader.ID, "tweak it"))
		}
	}
}

func TestSubmissionRequiresAssignedFreelancer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	task := newCapturedTask(t, f, 500)

	_, err := f.submissions.CreateSubmission(ctx, task.ID, f.uploader.ID, "not mine", nil)
	assert.ErrorIs(t, err, apperrors.ErrNotAuthorized)
}

func TestSubmissionRejectedWhileTaskOpen(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	task := newOpenTask(t, f, 500)

	_, err := f.submissions.CreateSubmission(ctx, task.ID, f.freelancer.ID, "too early", nil)
	assert.ErrorIs(t, err, apperrors.ErrSubmissionsClosed)
}

func TestSubmissionStampsFirstSubmissionAtOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	task := newCapturedTask(t, f, 500)

	sub, err := f.submissions.CreateSubmission(ctx, task.ID, f.freelancer.ID, "v1", nil)
	require.NoError(t, err)

	afterFirst, err := f.taskRepo.FindByID(ctx, task.ID)
	require.NoError(t, err)
	require.NotNil(t, afterFirst.FirstSubmissionAt)

	require.NoError(t, f.submissions.RequestRevision(ctx, sub.ID, f.uploader.ID, ""))
	_, err = f.submissions.CreateSubmission(ctx, task.ID, f.freelancer.ID, "v2", nil)
	require.NoError(t, err)

	afterSecond, err := f.taskRepo.FindByID(ctx, task.ID)
	require.NoError(t, err)
	assert.True(t, afterFirst.FirstSubmissionAt.Equal(*afterSecond.FirstSubmissionAt))
}

func TestRevisionLimitReachedAfterMaxRequests(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	task := newCapturedTask(t, f, 500)

	var lastSubID string
	for i := 1; i <= 3; i++ {
		sub, err := f.submissions.CreateSubmission(ctx, task.ID, f.freelancer.ID, "draft", nil)
		require.NoError(t, err)
		lastSubID = sub.ID

		require.NoError(t, f.submissions.RequestRevision(ctx, sub.ID, f.uploader.ID, "not quite"))
	}

	fresh, err := f.taskRepo.FindByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.StatusRevisionLimitReached, fresh.Status)
	assert.Equal(t, 3, fresh.RevisionRequestsUsed)

	// The fourth request fails with the specific limit error.
	err = f.submissions.RequestRevision(ctx, lastSubID, f.uploader.ID, "one more")
	assert.ErrorIs(t, err, apperrors.ErrRevisionLimitReached)

	// The freelancer cannot submit either; only the uploader's final
	// decision can move the task forward.
	_, err = f.submissions.CreateSubmission(ctx, task.ID, f.freelancer.ID, "v4", nil)
	assert.ErrorIs(t, err, apperrors.ErrAwaitingFinalDecision)

	// Acceptance is still possible from the dead end.
	require.NoError(t, f.submissions.AcceptSubmission(ctx, lastSubID, f.uploader.ID))
	final, err := f.taskRepo.FindByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.StatusCompleted, final.Status)
}

func TestAcceptSubmissionUploaderOnlyAndOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	task := newCapturedTask(t, f, 500)
	sub, err := f.submissions.CreateSubmission(ctx, task.ID, f.freelancer.ID, "done", nil)
	require.NoError(t, err)

	err = f.submissions.AcceptSubmission(ctx, sub.ID, f.freelancer.ID)
	require.ErrorIs(t, err, apperrors.ErrNotAuthorized)

	require.NoError(t, f.submissions.AcceptSubmission(ctx, sub.ID, f.uploader.ID))

	err = f.submissions.AcceptSubmission(ctx, sub.ID, f.uploader.ID)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyAccepted)
}

func TestAcceptSucceedsWhileSweepRaces(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	task := newSubmittedTask(t, f, 500, 80*time.Hour)
	subs, err := f.subRepo.ListByTask(ctx, task.ID)
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(2)
	acceptErr := make(chan error, 1)

	go func() {
		defer wg.Done()
		acceptErr <- f.submissions.AcceptSubmission(ctx, subs[0].ID, f.uploader.ID)
	}()
	go func() {
		defer wg.Done()
		_, _ = f.sweep.RunOnce(ctx)
	}()

	wg.Wait()
	require.NoError(t, <-acceptErr, "acceptance must survive a concurrent sweep bumping the task version")

	freshSub, err := f.subRepo.FindByID(ctx, subs[0].ID)
	require.NoError(t, err)
	assert.Equal(t, constants.SubmissionAccepted, freshSub.Status)

	fresh, err := f.taskRepo.FindByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.StatusCompleted, fresh.Status)
	assert.True(t, fresh.Payment.PayoutDone)
	assert.Equal(t, 1, f.gw.payoutAttempts)
}

func TestAcceptNotRolledBackWhenPayoutFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	task := newCapturedTask(t, f, 500)
	sub, err := f.submissions.CreateSubmission(ctx, task.ID, f.freelancer.ID, "done", nil)
	require.NoError(t, err)

	f.gw.failPayouts = 1

	require.NoError(t, f.submissions.AcceptSubmission(ctx, sub.ID, f.uploader.ID))

	fresh, err := f.taskRepo.FindByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.StatusCompleted, fresh.Status)
	assert.False(t, fresh.Payment.PayoutDone)
	assert.False(t, fresh.Payment.PayoutInProgress, "lock must be released for the sweep to retry")
	assert.Equal(t, 1, fresh.Payment.PayoutRetries)

	freshSub, err := f.subRepo.FindByID(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.SubmissionAccepted, freshSub.Status)
}
