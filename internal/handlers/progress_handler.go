// internal/handlers/progress_handler.go
package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"lecteuraide/internal/middleware"
	"lecteuraide/internal/model"
	"lecteuraide/internal/service"
	"lecteuraide/internal/webutil"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type ProgressHandler struct {
	service service.ProgressService
	logger  *slog.Logger
}

func NewProgressHandler(s service.ProgressService, logger *slog.Logger) *ProgressHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProgressHandler{
		service: s,
		logger:  logger,
	}
}

// PutProgress は読者の「最後に読んだシーン」を記録するためのハンドラ
func (h *ProgressHandler) PutProgress(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "PutProgress"))

	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		logger.Warn("Missing user identifier in context")
		appErr := model.NewAppError("FORBIDDEN", "利用者IDヘッダーが指定されていません", "", model.ErrForbidden)
		webutil.HandleError(w, logger, appErr)
		return
	}

	bookIDStr := chi.URLParam(r, "book_id")
	bookID, err := uuid.Parse(bookIDStr)
	if err != nil {
		logger.Warn("Invalid book ID format in URL", slog.String("book_id_str", bookIDStr), slog.String("error", err.Error()))
		webutil.HandleError(w, logger, webutil.NewInvalidUUIDError("book_id"))
		return
	}
	logger = logger.With(slog.String("book_id", bookID.String()))

	var req model.PutReadingProgressRequest
	if err := webutil.DecodeJSONBody(r, &req); err != nil {
		logger.Warn("Failed to decode request body", slog.String("error", err.Error()))
		appErr := model.NewAppError("INVALID_REQUEST_BODY", "リクエストボディの形式が正しくありません。", "", model.ErrInvalidInput)
		webutil.HandleError(w, logger, appErr)
		return
	}

	if err := webutil.Validator.Struct(req); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			logger.Warn("Validation failed", slog.Any("errors", validationErrors.Error()))
			firstErr := validationErrors[0]
			appErr := model.NewAppError(
				"VALIDATION_ERROR",
				firstErr.Translate(webutil.Trans),
				firstErr.Field(),
				model.ErrInvalidInput,
			)
			webutil.HandleError(w, logger, appErr)
		} else {
			logger.Error("Unexpected error during validation", slog.Any("error", err))
			webutil.HandleError(w, logger, err)
		}
		return
	}

	progress, err := h.service.UpsertProgress(r.Context(), userID, bookID, *req.SceneIndex)
	if err != nil {
		logger.Error("Error upserting progress in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Reading progress saved", slog.Int("scene_index", progress.LastSceneIndex))
	webutil.RespondWithJSON(w, http.StatusOK, progress)
}

// GetProgress は読者の読書進捗を取得するためのハンドラ
func (h *ProgressHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "GetProgress"))

	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		logger.Warn("Missing user identifier in context")
		appErr := model.NewAppError("FORBIDDEN", "利用者IDヘッダーが指定されていません", "", model.ErrForbidden)
		webutil.HandleError(w, logger, appErr)
		return
	}

	bookIDStr := chi.URLParam(r, "book_id")
	bookID, err := uuid.Parse(bookIDStr)
	if err != nil {
		logger.Warn("Invalid book ID format in URL", slog.String("book_id_str", bookIDStr), slog.String("error", err.Error()))
		webutil.HandleError(w, logger, webutil.NewInvalidUUIDError("book_id"))
		return
	}
	logger = logger.With(slog.String("book_id", bookID.String()))

	progress, err := h.service.GetProgress(r.Context(), userID, bookID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			logger.Info("Reading progress not found", slog.Any("error", err))
		} else {
			logger.Error("Error getting progress from service", slog.Any("error", err))
		}
		webutil.HandleError(w, logger, err)
		return
	}

	webutil.RespondWithJSON(w, http.StatusOK, progress)
}
