// internal/service/book_service_test.go
package service

import (
	"context"
	"testing"

	"lecteuraide/internal/model"
	"lecteuraide/internal/repository/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func Test_bookService_GetBook(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB()
	bookID := uuid.New()

	t.Run("正常系: シーン・文・練習問題がDTOに詰め替えられる", func(t *testing.T) {
		sceneID := uuid.New()
		title := "Ouverture"
		translated := "The cat sleeps."
		book := &model.Book{
			BookID:       bookID,
			Title:        "Livre",
			LanguageCode: "fr",
			Scenes: []model.Scene{
				{
					SceneID:    sceneID,
					BookID:     bookID,
					SceneIndex: 0,
					Title:      &title,
					RawText:    "Le chat dort.",
					Sentences: []model.Sentence{
						{SceneID: sceneID, SentenceIndex: 0, SourceText: "Le chat dort.", TranslatedText: &translated},
					},
					Exercise: &model.SceneExercise{
						SceneID:    sceneID,
						Vocabulary: []model.VocabularyItem{{Term: "chat", Definition: "cat"}},
						Questions: []model.Question{{
							Prompt:  "Q",
							Options: []model.QuestionOption{{Text: "A", IsCorrect: true}, {Text: "B"}},
						}},
					},
				},
			},
		}

		mockBookRepo := new(mocks.BookRepository)
		mockBookRepo.On("FindByIDWithContents", ctx, mock.AnythingOfType("*gorm.DB"), bookID).
			Return(book, nil).Once()

		svc := NewBookService(db, mockBookRepo)
		detail, err := svc.GetBook(ctx, bookID)
		require.NoError(t, err)

		assert.Equal(t, bookID, detail.BookID)
		require.Len(t, detail.Scenes, 1)
		scene := detail.Scenes[0]
		assert.Equal(t, 0, scene.SceneIndex)
		require.NotNil(t, scene.Title)
		assert.Equal(t, "Ouverture", *scene.Title)
		require.Len(t, scene.Sentences, 1)
		assert.Equal(t, "Le chat dort.", scene.Sentences[0].SourceText)
		require.NotNil(t, scene.Sentences[0].TranslatedText)
		assert.Len(t, scene.Vocabulary, 1)
		assert.Len(t, scene.Questions, 1)

		mockBookRepo.AssertExpectations(t)
	})

	t.Run("正常系: 練習問題のないシーンは空リストを返す", func(t *testing.T) {
		book := &model.Book{
			BookID: bookID,
			Title:  "Livre",
			Scenes: []model.Scene{{SceneID: uuid.New(), BookID: bookID, SceneIndex: 0, RawText: "texte"}},
		}

		mockBookRepo := new(mocks.BookRepository)
		mockBookRepo.On("FindByIDWithContents", ctx, mock.AnythingOfType("*gorm.DB"), bookID).
			Return(book, nil).Once()

		svc := NewBookService(db, mockBookRepo)
		detail, err := svc.GetBook(ctx, bookID)
		require.NoError(t, err)

		require.Len(t, detail.Scenes, 1)
		assert.NotNil(t, detail.Scenes[0].Vocabulary)
		assert.Empty(t, detail.Scenes[0].Vocabulary)
		assert.NotNil(t, detail.Scenes[0].Questions)
		assert.Empty(t, detail.Scenes[0].Questions)
	})

	t.Run("異常系: 存在しない書籍はErrNotFound", func(t *testing.T) {
		mockBookRepo := new(mocks.BookRepository)
		mockBookRepo.On("FindByIDWithContents", ctx, mock.AnythingOfType("*gorm.DB"), bookID).
			Return(nil, model.ErrNotFound).Once()

		svc := NewBookService(db, mockBookRepo)
		_, err := svc.GetBook(ctx, bookID)
		assert.ErrorIs(t, err, model.ErrNotFound)
	})
}

func Test_bookService_ListBooks(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB()

	t.Run("正常系: 一覧の取得成功", func(t *testing.T) {
		summaries := []*model.BookSummaryResponse{
			{BookID: uuid.New(), Title: "A", SceneCount: 3},
			{BookID: uuid.New(), Title: "B", SceneCount: 0},
		}
		mockBookRepo := new(mocks.BookRepository)
		mockBookRepo.On("FindSummaries", ctx, mock.AnythingOfType("*gorm.DB")).
			Return(summaries, nil).Once()

		svc := NewBookService(db, mockBookRepo)
		got, err := svc.ListBooks(ctx)
		require.NoError(t, err)
		assert.Equal(t, summaries, got)
	})

	t.Run("異常系: リポジトリエラーはErrInternalServerに変換される", func(t *testing.T) {
		mockBookRepo := new(mocks.BookRepository)
		mockBookRepo.On("FindSummaries", ctx, mock.AnythingOfType("*gorm.DB")).
			Return(nil, assert.AnError).Once()

		svc := NewBookService(db, mockBookRepo)
		_, err := svc.ListBooks(ctx)
		assert.ErrorIs(t, err, model.ErrInternalServer)
	})
}

func Test_bookService_DeleteBook(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB()
	bookID := uuid.New()

	t.Run("正常系: 削除成功", func(t *testing.T) {
		mockBookRepo := new(mocks.BookRepository)
		mockBookRepo.On("Delete", ctx, mock.AnythingOfType("*gorm.DB"), bookID).
			Return(nil).Once()

		svc := NewBookService(db, mockBookRepo)
		assert.NoError(t, svc.DeleteBook(ctx, bookID))
		mockBookRepo.AssertExpectations(t)
	})

	t.Run("異常系: 存在しない書籍はErrNotFound", func(t *testing.T) {
		mockBookRepo := new(mocks.BookRepository)
		mockBookRepo.On("Delete", ctx, mock.AnythingOfType("*gorm.DB"), bookID).
			Return(model.ErrNotFound).Once()

		svc := NewBookService(db, mockBookRepo)
		assert.ErrorIs(t, svc.DeleteBook(ctx, bookID), model.ErrNotFound)
	})
}
