// internal/service/book_service.go
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

type BookService interface {
	ListBooks(ctx context.Context) ([]*model.BookSummaryResponse, error)
	GetBook(ctx context.Context, bookID uuid.UUID) (*model.BookDetailResponse, error)
	DeleteBook(ctx context.Context, bookID uuid.UUID) error
}

type bookService struct {
	db       *gorm.DB
	bookRepo repository.BookRepository
}

func NewBookService(db *gorm.DB, bookRepo repository.BookRepository) BookService {
	return &bookService{db: db, bookRepo: bookRepo}
}

func (s *bookService) ListBooks(ctx context.Context) ([]*model.BookSummaryResponse, error) {
	summaries, err := s.bookRepo.FindSummaries(ctx, s.db)
	if err != nil {
		return nil, model.ErrInternalServer
	}
	return summaries, nil
}

func (s *bookService) GetBook(ctx context.Context, bookID uuid.UUID) (*model.BookDetailResponse, error) {
	book, err := s.bookRepo.FindByIDWithContents(ctx, s.db, bookID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, model.ErrInternalServer
	}
	return toBookDetail(book), nil
}

func (s *bookService) DeleteBook(ctx context.Context, bookID uuid.UUID) error {
	logger := middleware.GetLogger(ctx)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.bookRepo.Delete(ctx, tx, bookID)
	})
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.ErrNotFound
		}
		logger.Error("Transaction failed for DeleteBook", "book_id", bookID.String(), "error", err)
		return model.ErrInternalServer
	}
	return nil
}

// toBookDetail はエンティティをレスポンスDTOに詰め替えます
func toBookDetail(book *model.Book) *model.BookDetailResponse {
	detail := &model.BookDetailResponse{
		BookID:       book.BookID,
		Title:        book.Title,
		Author:       book.Author,
		LanguageCode: book.LanguageCode,
		CreatedAt:    book.CreatedAt,
		Scenes:       make([]model.SceneResponse, 0, len(book.Scenes)),
	}
	for _, scene := range book.Scenes {
		sceneResp := model.SceneResponse{
			SceneID:    scene.SceneID,
			SceneIndex: scene.SceneIndex,
			Title:      scene.Title,
			Summary:    scene.Summary,
			Sentences:  make([]model.SentenceResponse, 0, len(scene.Sentences)),
			Vocabulary: []model.VocabularyItem{},
			Questions:  []model.Question{},
		}
		for _, sentence := range scene.Sentences {
			sceneResp.Sentences = append(sceneResp.Sentences, model.SentenceResponse{
				SentenceIndex:  sentence.SentenceIndex,
				SourceText:     sentence.SourceText,
				TranslatedText: sentence.TranslatedText,
				QualityFlags:   sentence.QualityFlags,
			})
		}
		if scene.Exercise != nil {
			if scene.Exercise.Vocabulary != nil {
				sceneResp.Vocabulary = scene.Exercise.Vocabulary
			}
			if scene.Exercise.Questions != nil {
				sceneResp.Questions = scene.Exercise.Questions
			}
		}
		detail.Scenes = append(detail.Scenes, sceneResp)
	}
	return detail
}
