// internal/handlers/ingestion_handler.go
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"lecteuraide/internal/model"
	"lecteuraide/internal/service"
	"lecteuraide/internal/webutil"

	"github.com/go-playground/validator/v10"
)

type IngestionHandler struct {
	service service.IngestionService
	logger  *slog.Logger
}

func NewIngestionHandler(s service.IngestionService, logger *slog.Logger) *IngestionHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &IngestionHandler{
		service: s,
		logger:  logger,
	}
}

// PostIngest は書籍の取り込みを開始し、進捗をNDJSONでストリーミングするハンドラ。
// レスポンスは1行1イベントで、最後のイベントは必ず completed か error です。
// クライアントが切断しても取り込み自体は最後まで実行されます。
func (h *IngestionHandler) PostIngest(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "PostIngest"))

	var req model.IngestBookRequest
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
			translatedMsg := firstErr.Translate(webutil.Trans)
			appErr := model.NewAppError(
				"VALIDATION_ERROR",
				translatedMsg,
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

	events, bookID, err := h.service.StartIngestion(r.Context(), &req)
	if err != nil {
		logger.Error("Error starting ingestion in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}
	logger = logger.With(slog.String("book_id", bookID.String()))
	logger.Info("Ingestion started")

	flusher, ok := w.(http.Flusher)
	if !ok {
		logger.Error("Response writer does not support streaming")
		webutil.HandleError(w, logger, model.ErrInternalServer)
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for event := range events {
		line, err := json.Marshal(event)
		if err != nil {
			logger.Error("Failed to marshal progress event", slog.Any("error", err))
			continue
		}
		if _, err := w.Write(append(line, '\n')); err != nil {
			// 切断されたクライアント。取り込みはバックグラウンドで続くので
			// チャネルを消費し続けてエミッタを空にする。
			logger.Info("Client disconnected from progress stream", slog.Any("error", err))
			for range events {
			}
			return
		}
		flusher.Flush()
	}

	logger.Info("Progress stream closed")
}
