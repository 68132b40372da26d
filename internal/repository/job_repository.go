//go:generate mockery --name JobRepository --output ./mocks --outpkg mocks --case=underscore
package repository

import (
	"context"
	"errors"
	"fmt"

	"lecteuraide/internal/middleware"
	"lecteuraide/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// JobRepository は取り込みジョブレコードの読み書きを担います
type JobRepository interface {
	Create(ctx context.Context, tx *gorm.DB, job *model.IngestionJob) error
	Save(ctx context.Context, db *gorm.DB, job *model.IngestionJob) error
	FindByID(ctx context.Context, db *gorm.DB, jobID uuid.UUID) (*model.IngestionJob, error)
	FindLatestByBookID(ctx context.Context, db *gorm.DB, bookID uuid.UUID) (*model.IngestionJob, error)
}

type gormJobRepository struct{}

func NewGormJobRepository() JobRepository {
	return &gormJobRepository{}
}

func (r *gormJobRepository) Create(ctx context.Context, tx *gorm.DB, job *model.IngestionJob) error {
	logger := middleware.GetLogger(ctx)
	result := tx.WithContext(ctx).Create(job)
	if result.Error != nil {
		logger.Error("Error creating ingestion job in DB",
			"error", result.Error,
			"job_id", job.JobID.String(),
			"book_id", job.BookID.String(),
		)
		return fmt.Errorf("gormJobRepository.Create: %w", result.Error)
	}
	return nil
}

// Save はジョブレコード全体を上書きします。状態遷移の書き込み元はランナーのみです。
func (r *gormJobRepository) Save(ctx context.Context, db *gorm.DB, job *model.IngestionJob) error {
	logger := middleware.GetLogger(ctx)
	result := db.WithContext(ctx).Save(job)
	if result.Error != nil {
		logger.Error("Error saving ingestion job in DB",
			"error", result.Error,
			"job_id", job.JobID.String(),
			"status", string(job.Status),
		)
		return fmt.Errorf("gormJobRepository.Save: %w", result.Error)
	}
	return nil
}

func (r *gormJobRepository) FindByID(ctx context.Context, db *gorm.DB, jobID uuid.UUID) (*model.IngestionJob, error) {
	logger := middleware.GetLogger(ctx)
	var job model.IngestionJob
	result := db.WithContext(ctx).Where("job_id = ?", jobID).First(&job)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		logger.Error("Error finding ingestion job by ID in DB",
			"error", result.Error,
			"job_id", jobID.String(),
		)
		return nil, fmt.Errorf("gormJobRepository.FindByID: %w", result.Error)
	}
	return &job, nil
}

func (r *gormJobRepository) FindLatestByBookID(ctx context.Context, db *gorm.DB, bookID uuid.UUID) (*model.IngestionJob, error) {
	logger := middleware.GetLogger(ctx)
	var job model.IngestionJob
	result := db.WithContext(ctx).Where("book_id = ?", bookID).Order("created_at DESC").First(&job)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		logger.Error("Error finding latest ingestion job in DB",
			"error", result.Error,
			"book_id", bookID.String(),
		)
		return nil, fmt.Errorf("gormJobRepository.FindLatestByBookID: %w", result.Error)
	}
	return &job, nil
}
