//go:generate mockery --name ProgressRepository --output ./mocks --outpkg mocks --case=underscore
package repository

import (
	"context"
	"errors"
	"fmt"

	"lecteuraide/internal/middleware"
	"lecteuraide/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProgressRepository は読者の読書進捗の読み書きを担います
type ProgressRepository interface {
	Upsert(ctx context.Context, tx *gorm.DB, progress *model.ReadingProgress) error
	Find(ctx context.Context, db *gorm.DB, userID string, bookID uuid.UUID) (*model.ReadingProgress, error)
}

type gormProgressRepository struct{}

func NewGormProgressRepository() ProgressRepository {
	return &gormProgressRepository{}
}

// Upsert は (user_id, book_id) の進捗を後勝ちで上書きします。
// 同一キーへの同時送信は衝突させず、最後の書き込みを残します。
func (r *gormProgressRepository) Upsert(ctx context.Context, tx *gorm.DB, progress *model.ReadingProgress) error {
	logger := middleware.GetLogger(ctx)
	result := tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "book_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"last_scene_index", "updated_at"}),
	}).Create(progress)
	if result.Error != nil {
		logger.Error("Error upserting reading progress in DB",
			"error", result.Error,
			"user_id", progress.UserID,
			"book_id", progress.BookID.String(),
		)
		return fmt.Errorf("gormProgressRepository.Upsert: %w", result.Error)
	}
	return nil
}

func (r *gormProgressRepository) Find(ctx context.Context, db *gorm.DB, userID string, bookID uuid.UUID) (*model.ReadingProgress, error) {
	logger := middleware.GetLogger(ctx)
	var progress model.ReadingProgress
	result := db.WithContext(ctx).Where("user_id = ? AND book_id = ?", userID, bookID).First(&progress)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		logger.Error("Error finding reading progress in DB",
			"error", result.Error,
			"user_id", userID,
			"book_id", bookID.String(),
		)
		return nil, fmt.Errorf("gormProgressRepository.Find: %w", result.Error)
	}
	return &progress, nil
}
