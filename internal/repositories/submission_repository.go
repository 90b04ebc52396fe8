package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	model "task-market.com/task-market/internal/models"
)

type SubmissionRepository struct {
	db *gorm.DB
}

func NewSubmissionRepository(db *gorm.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

func (r *SubmissionRepository) Create(ctx context.Context, sub *model.Submission) error {
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now().UTC()
	}

	return r.db.WithContext(ctx).Create(sub).Error
}

func (r *SubmissionRepository) FindByID(ctx context.Context, id string) (*model.Submission, error) {
	var sub model.Submission
	err := r.db.WithContext(ctx).First(&sub, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *SubmissionRepository) ListByTask(ctx context.Context, taskID string) ([]model.Submission, error) {
	var subs []model.Submission
	err := r.db.WithContext(ctx).
		Where("task_id = ?", taskID).
		Order("version asc").
		Find(&subs).Error
	return subs, err
}

// NextVersion computes the next submission version for a task, starting at
// 1. The unique (task_id, version) index catches the race where two
// freelancer requests compute the same number.
func (r *SubmissionRepository) NextVersion(ctx context.Context, taskID string) (int, error) {
	var next int
	err := r.db.WithContext(ctx).Model(&model.Submission{}).
		Where("task_id = ?", taskID).
		Select("COALESCE(MAX(version), 0) + 1").
		Scan(&next).Error
	if err != nil {
		return 0, err
	}
	return next, nil
}

func (r *SubmissionRepository) UpdateStatus(ctx context.Context, sub *model.Submission) error {
	return r.db.WithContext(ctx).Model(&model.Submission{}).
		Where("id = ?", sub.ID).
		Updates(map[string]interface{}{
			"status":        sub.Status,
			"revision_note": sub.RevisionNote,
		}).Error
}
