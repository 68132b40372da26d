// internal/service/progress_service.go
package service

import (
	"context"
	"errors"

	"lecteuraide/internal/middleware"
	"lecteuraide/internal/model"
	"lecteuraide/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProgressService interface {
	UpsertProgress(ctx context.Context, userID string, bookID uuid.UUID, sceneIndex int) (*model.ReadingProgressResponse, error)
	GetProgress(ctx context.Context, userID string, bookID uuid.UUID) (*model.ReadingProgressResponse, error)
}

type progressService struct {
	db       *gorm.DB
	bookRepo repository.BookRepository
	progRepo repository.ProgressRepository
}

func NewProgressService(db *gorm.DB, bookRepo repository.BookRepository, progRepo repository.ProgressRepository) ProgressService {
	return &progressService{db: db, bookRepo: bookRepo, progRepo: progRepo}
}

// UpsertProgress は「最後に読んだシーン」を後勝ちで記録します
func (s *progressService) UpsertProgress(ctx context.Context, userID string, bookID uuid.UUID, sceneIndex int) (*model.ReadingProgressResponse, error) {
	logger := middleware.GetLogger(ctx)
	if userID == "" {
		return nil, model.ErrForbidden
	}
	if sceneIndex < 0 {
		return nil, model.ErrInvalidInput
	}

	// 存在しない書籍への進捗は受け付けない
	if _, err := s.bookRepo.FindByID(ctx, s.db, bookID); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, model.ErrInternalServer
	}

	progress := &model.ReadingProgress{
		UserID:         userID,
		BookID:         bookID,
		LastSceneIndex: sceneIndex,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.progRepo.Upsert(ctx, tx, progress)
	})
	if err != nil {
		logger.Error("Transaction failed for UpsertProgress", "user_id", userID, "book_id", bookID.String(), "error", err)
		return nil, model.ErrInternalServer
	}

	saved, err := s.progRepo.Find(ctx, s.db, userID, bookID)
	if err != nil {
		return nil, model.ErrInternalServer
	}
	return &model.ReadingProgressResponse{
		BookID:         saved.BookID,
		LastSceneIndex: saved.LastSceneIndex,
		UpdatedAt:      saved.UpdatedAt,
	}, nil
}

func (s *progressService) GetProgress(ctx context.Context, userID string, bookID uuid.UUID) (*model.ReadingProgressResponse, error) {
	if userID == "" {
		return nil, model.ErrForbidden
	}
	progress, err := s.progRepo.Find(ctx, s.db, userID, bookID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, model.ErrInternalServer
	}
	return &model.ReadingProgressResponse{
		BookID:         progress.BookID,
		LastSceneIndex: progress.LastSceneIndex,
		UpdatedAt:      progress.UpdatedAt,
	}, nil
}
