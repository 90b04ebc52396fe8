package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "task-market.com/task-market/internal/errors"
)

func TestCreateOrderSnapshotsFeeAndPendingAssignment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	task := newOpenTask(t, f, 500)

	order, err := f.payments.CreateOrder(ctx, task.ID, f.uploader.ID, f.freelancer.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(50000), order.AmountMinor)
	assert.Equal(t, "INR", order.Currency)

	fresh, err := f.taskRepo.FindByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, order.OrderID, fresh.Payment.OrderID)
	assert.Equal(t, 500.0, fresh.Payment.Amount)
	assert.Equal(t, 10.0, fresh.Payment.PlatformFeePercent)
	assert.Equal(t, f.freelancer.ID, fresh.Payment.PendingAssignedTo)
	assert.Empty(t, fresh.AssignedTo, "assignment happens only on capture")
}

func TestCreateOrderPreconditions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	task := newOpenTask(t, f, 500)

	_, err := f.payments.CreateOrder(ctx, task.ID, f.freelancer.ID, f.freelancer.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotAuthorized)

	_, err = f.payments.CreateOrder(ctx, "missing", f.uploader.ID, f.freelancer.ID)
	assert.ErrorIs(t, err, apperrors.ErrTaskNotFound)

	_, err = f.payments.CreateOrder(ctx, task.ID, f.uploader.ID, "missing")
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)

	captured := newCapturedTask(t, f, 300)
	_, err = f.payments.CreateOrder(ctx, captured.ID, f.uploader.ID, f.freelancer.ID)
	assert.ErrorIs(t, err, apperrors.ErrTaskNotOpen)
}

func TestCreateOrderGatewayFailureLeavesNoState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	task := newOpenTask(t, f, 500)
	f.gw.failOrders = true

	_, err := f.payments.CreateOrder(ctx, task.ID, f.uploader.ID, f.freelancer.ID)
	require.Error(t, err)

	fresh, err := f.taskRepo.FindByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Empty(t, fresh.Payment.OrderID)
	assert.Empty(t, fresh.Payment.PendingAssignedTo)
	assert.Zero(t, fresh.Payment.PlatformFeePercent)
}
