//go:generate mockery --name BookRepository --output ./mocks --outpkg mocks --case=underscore
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

// BookRepository インターフェース
type BookRepository interface {
	Create(ctx context.Context, tx *gorm.DB, book *model.Book) error
	FindByID(ctx context.Context, db *gorm.DB, bookID uuid.UUID) (*model.Book, error)
	FindByIDWithContents(ctx context.Context, db *gorm.DB, bookID uuid.UUID) (*model.Book, error)
	FindSummaries(ctx context.Context, db *gorm.DB) ([]*model.BookSummaryResponse, error)
	Delete(ctx context.Context, tx *gorm.DB, bookID uuid.UUID) error
}

type gormBookRepository struct{}

func NewGormBookRepository() BookRepository {
	return &gormBookRepository{}
}

func (r *gormBookRepository) Create(ctx context.Context, tx *gorm.DB, book *model.Book) error {
	logger := middleware.GetLogger(ctx)
	result := tx.WithContext(ctx).Create(book)
	if result.Error != nil {
		logger.Error("Error creating book in DB",
			"error", result.Error,
			"book_id", book.BookID.String(),
			"title", book.Title,
		)
		return fmt.Errorf("gormBookRepository.Create: %w", result.Error)
	}
	return nil
}

func (r *gormBookRepository) FindByID(ctx context.Context, db *gorm.DB, bookID uuid.UUID) (*model.Book, error) {
	logger := middleware.GetLogger(ctx)
	var book model.Book
	result := db.WithContext(ctx).Where("book_id = ?", bookID).First(&book)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		logger.Error("Error finding book by ID in DB",
			"error", result.Error,
			"book_id", bookID.String(),
		)
		return nil, fmt.Errorf("gormBookRepository.FindByID: %w", result.Error)
	}
	return &book, nil
}

// FindByIDWithContents はシーン・文・練習問題まで含めた書籍全体を取得します。
// シーンと文はそれぞれのインデックス順で返します。
func (r *gormBookRepository) FindByIDWithContents(ctx context.Context, db *gorm.DB, bookID uuid.UUID) (*model.Book, error) {
	logger := middleware.GetLogger(ctx)
	var book model.Book
	result := db.WithContext(ctx).
		Preload("Scenes", func(db *gorm.DB) *gorm.DB {
			return db.Order("scenes.scene_index ASC")
		}).
		Preload("Scenes.Sentences", func(db *gorm.DB) *gorm.DB {
			return db.Order("sentences.sentence_index ASC")
		}).
		Preload("Scenes.Exercise").
		Where("book_id = ?", bookID).
		First(&book)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		logger.Error("Error finding book with contents in DB",
			"error", result.Error,
			"book_id", bookID.String(),
		)
		return nil, fmt.Errorf("gormBookRepository.FindByIDWithContents: %w", result.Error)
	}
	return &book, nil
}

// FindSummaries は取り込みが完了した書籍の一覧をシーン数付きで返します。
// 実行中・失敗したジョブしか持たない書籍は一覧に現れません。
func (r *gormBookRepository) FindSummaries(ctx context.Context, db *gorm.DB) ([]*model.BookSummaryResponse, error) {
	logger := middleware.GetLogger(ctx)
	var summaries []*model.BookSummaryResponse
	result := db.WithContext(ctx).
		Table("books").
		Select("books.book_id, books.title, books.author, books.language_code, books.created_at, COUNT(scenes.scene_id) AS scene_count").
		Joins("JOIN ingestion_jobs ON ingestion_jobs.book_id = books.book_id AND ingestion_jobs.status = ?", model.JobStatusCompleted).
		Joins("LEFT JOIN scenes ON scenes.book_id = books.book_id").
		Where("books.deleted_at IS NULL").
		Group("books.book_id").
		Order("books.created_at DESC").
		Scan(&summaries)
	if result.Error != nil {
		logger.Error("Error listing book summaries in DB", "error", result.Error)
		return nil, fmt.Errorf("gormBookRepository.FindSummaries: %w", result.Error)
	}
	return summaries, nil
}

// Delete は書籍を論理削除し、従属データ (シーン・文・練習問題・ジョブ・読書進捗) を物理削除します
func (r *gormBookRepository) Delete(ctx context.Context, tx *gorm.DB, bookID uuid.UUID) error {
	logger := middleware.GetLogger(ctx)

	result := tx.WithContext(ctx).Where("book_id = ?", bookID).Delete(&model.Book{})
	if result.Error != nil {
		logger.Error("Error deleting book in DB",
			"error", result.Error,
			"book_id", bookID.String(),
		)
		return fmt.Errorf("gormBookRepository.Delete: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return model.ErrNotFound
	}

	sceneIDs := tx.WithContext(ctx).Model(&model.Scene{}).Select("scene_id").Where("book_id = ?", bookID)
	if err := tx.WithContext(ctx).Where("scene_id IN (?)", sceneIDs).Delete(&model.Sentence{}).Error; err != nil {
		logger.Error("Error deleting sentences of book in DB", "error", err, "book_id", bookID.String())
		return fmt.Errorf("gormBookRepository.Delete: %w", err)
	}
	if err := tx.WithContext(ctx).Where("scene_id IN (?)", sceneIDs).Delete(&model.SceneExercise{}).Error; err != nil {
		logger.Error("Error deleting exercises of book in DB", "error", err, "book_id", bookID.String())
		return fmt.Errorf("gormBookRepository.Delete: %w", err)
	}
	if err := tx.WithContext(ctx).Where("book_id = ?", bookID).Delete(&model.Scene{}).Error; err != nil {
		logger.Error("Error deleting scenes of book in DB", "error", err, "book_id", bookID.String())
		return fmt.Errorf("gormBookRepository.Delete: %w", err)
	}
	if err := tx.WithContext(ctx).Where("book_id = ?", bookID).Delete(&model.IngestionJob{}).Error; err != nil {
		logger.Error("Error deleting jobs of book in DB", "error", err, "book_id", bookID.String())
		return fmt.Errorf("gormBookRepository.Delete: %w", err)
	}
	if err := tx.WithContext(ctx).Where("book_id = ?", bookID).Delete(&model.ReadingProgress{}).Error; err != nil {
		logger.Error("Error deleting reading progress of book in DB", "error", err, "book_id", bookID.String())
		return fmt.Errorf("gormBookRepository.Delete: %w", err)
	}
	return nil
}
