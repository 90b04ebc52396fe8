package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"task-market.com/task-market/internal/constants"
	apperrors "task-market.com/task-market/internal/errors"
	model "task-market.com/task-market/internal/models"
	repository "task-market.com/task-market/internal/repositories"
)

type TaskService struct {
	taskRepo            *repository.TaskRepository
	maxRevisionRequests int
}

func NewTaskService(taskRepo *repository.TaskRepository, maxRevisionRequests int) *TaskService {
	return &TaskService{
		taskRepo:            taskRepo,
		maxRevisionRequests: maxRevisionRequests,
	}
}

func (s *TaskService) CreateTask(
	ctx context.Context,
	uploaderID, title, description, category string,
	deadline time.Time,
	budget float64,
) (*model.Task, error) {
	task := &model.Task{
		Title:               title,
		Description:         description,
		Category:            category,
		Deadline:            deadline,
		Budget:              budget,
		Status:              constants.StatusOpen,
		UploadedBy:          uploaderID,
		MaxRevisionRequests: s.maxRevisionRequests,
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, err
	}

	return task, nil
}

func (s *TaskService) GetTask(ctx context.Context, id string) (*model.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTaskNotFound
		}
		return nil, err
	}
	return task, nil
}

// DeleteTask removes a task. Deletion is only allowed while the task is
// open and before any payment identifiers exist; a task with a captured
// payment is never hard-deleted.
func (s *TaskService) DeleteTask(ctx context.Context, taskID, uploaderID string) error {
	task, err := s.GetTask(ctx, taskID)
	if err != nil {
		return err
	}

	if task.UploadedBy != uploaderID {
		return apperrors.ErrNotAuthorized
	}
	if task.Status != constants.StatusOpen {
		return apperrors.ErrTaskNotDeletable
	}
	if task.Payment.OrderID != "" || task.Payment.PaymentID != "" {
		return apperrors.ErrTaskNotDeletable
	}

	return s.taskRepo.Delete(ctx, task.ID)
}
