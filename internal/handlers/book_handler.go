// internal/handlers/book_handler.go
package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"lecteuraide/internal/model"
	"lecteuraide/internal/service"
	"lecteuraide/internal/webutil"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type BookHandler struct {
	service service.BookService
	logger  *slog.Logger
}

func NewBookHandler(s service.BookService, logger *slog.Logger) *BookHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &BookHandler{
		service: s,
		logger:  logger,
	}
}

// GetBooks は取り込み済み書籍の一覧を取得するためのハンドラ
func (h *BookHandler) GetBooks(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "GetBooks"))

	books, err := h.service.ListBooks(r.Context())
	if err != nil {
		logger.Error("Error listing books in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	if books == nil {
		books = []*model.BookSummaryResponse{}
	}
	logger.Info("Books listed successfully", slog.Int("count", len(books)))
	webutil.RespondWithJSON(w, http.StatusOK, books)
}

// GetBook は特定の書籍をシーン・文・練習問題込みで取得するためのハンドラ
func (h *BookHandler) GetBook(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "GetBook"))

	bookIDStr := chi.URLParam(r, "book_id")
	bookID, err := uuid.Parse(bookIDStr)
	if err != nil {
		logger.Warn("Invalid book ID format in URL", slog.String("book_id_str", bookIDStr), slog.String("error", err.Error()))
		webutil.HandleError(w, logger, webutil.NewInvalidUUIDError("book_id"))
		return
	}
	logger = logger.With(slog.String("book_id", bookID.String()))

	book, err := h.service.GetBook(r.Context(), bookID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			logger.Info("Book not found in service", slog.Any("error", err))
		} else {
			logger.Error("Error getting book from service", slog.Any("error", err))
		}
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Book retrieved successfully", slog.Int("scene_count", len(book.Scenes)))
	webutil.RespondWithJSON(w, http.StatusOK, book)
}

// DeleteBook は特定の書籍を削除するためのハンドラ
func (h *BookHandler) DeleteBook(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "DeleteBook"))

	bookIDStr := chi.URLParam(r, "book_id")
	bookID, err := uuid.Parse(bookIDStr)
	if err != nil {
		logger.Warn("Invalid book ID format in URL", slog.String("book_id_str", bookIDStr), slog.String("error", err.Error()))
		webutil.HandleError(w, logger, webutil.NewInvalidUUIDError("book_id"))
		return
	}
	logger = logger.With(slog.String("book_id", bookID.String()))

	if err := h.service.DeleteBook(r.Context(), bookID); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			logger.Info("Book not found for deletion", slog.Any("error", err))
		} else {
			logger.Error("Error deleting book in service", slog.Any("error", err))
		}
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Book deleted successfully")
	w.WriteHeader(http.StatusNoContent)
}
