// internal/handlers/ingestion_handler_test.go
package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"lecteuraide/internal/model"
	"lecteuraide/internal/pipeline"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubIngestionService は固定のイベント列を返す service.IngestionService 実装
type stubIngestionService struct {
	events []pipeline.Event
	bookID uuid.UUID
	err    error
}

func (s *stubIngestionService) StartIngestion(ctx context.Context, req *model.IngestBookRequest) (<-chan pipeline.Event, uuid.UUID, error) {
	if s.err != nil {
		return nil, uuid.Nil, s.err
	}
	ch := make(chan pipeline.Event, len(s.events))
	for _, ev := range s.events {
		ch <- ev
	}
	close(ch)
	return ch, s.bookID, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestIngestionHandler_PostIngest(t *testing.T) {
	t.Run("正常系: NDJSONで進捗が流れ最後はcompleted", func(t *testing.T) {
		bookID := uuid.New()
		svc := &stubIngestionService{
			bookID: bookID,
			events: []pipeline.Event{
				{Type: pipeline.EventProgress, ProcessedChunks: 0, TotalChunks: 2},
				{Type: pipeline.EventProgress, ProcessedChunks: 1, TotalChunks: 2},
				{Type: pipeline.EventProgress, ProcessedChunks: 2, TotalChunks: 2},
				{Type: pipeline.EventCompleted, BookID: bookID, SceneCount: 4},
			},
		}
		handler := NewIngestionHandler(svc, testLogger())

		body := `{"title":"Livre","text":"Le chat dort."}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/books/ingest", strings.NewReader(body))
		rec := httptest.NewRecorder()

		handler.PostIngest(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/x-ndjson", rec.Header().Get("Content-Type"))

		lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
		require.Len(t, lines, 4)

		// 各行が独立したJSONであること
		for _, line := range lines {
			var decoded map[string]any
			require.NoError(t, json.Unmarshal([]byte(line), &decoded))
		}

		var last map[string]any
		require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &last))
		assert.Equal(t, "completed", last["type"])
		assert.Equal(t, bookID.String(), last["book_id"])
		assert.Equal(t, float64(4), last["scene_count"])
	})

	t.Run("正常系: 失敗ジョブの最後はerrorイベント", func(t *testing.T) {
		svc := &stubIngestionService{
			bookID: uuid.New(),
			events: []pipeline.Event{
				{Type: pipeline.EventProgress, ProcessedChunks: 1, TotalChunks: 3},
				{Type: pipeline.EventError, Message: "チャンク 2 の解析に失敗したため取り込みを中断しました"},
			},
		}
		handler := NewIngestionHandler(svc, testLogger())

		body := `{"title":"Livre","text":"Le chat dort."}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/books/ingest", strings.NewReader(body))
		rec := httptest.NewRecorder()

		handler.PostIngest(rec, req)

		// ストリーム開始後の失敗はHTTPレベルでは200のまま
		assert.Equal(t, http.StatusOK, rec.Code)
		lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
		var last map[string]any
		require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &last))
		assert.Equal(t, "error", last["type"])
		assert.NotEmpty(t, last["message"])
	})

	t.Run("異常系: 本文欠落はバリデーションエラー", func(t *testing.T) {
		handler := NewIngestionHandler(&stubIngestionService{}, testLogger())

		body := `{"title":"Livre","text":""}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/books/ingest", strings.NewReader(body))
		rec := httptest.NewRecorder()

		handler.PostIngest(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		var resp model.APIErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
		assert.Equal(t, "text", resp.Error.Field)
	})

	t.Run("異常系: 不正なJSONボディは400", func(t *testing.T) {
		handler := NewIngestionHandler(&stubIngestionService{}, testLogger())

		req := httptest.NewRequest(http.MethodPost, "/api/v1/books/ingest", strings.NewReader("{not json"))
		rec := httptest.NewRecorder()

		handler.PostIngest(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("異常系: サービスエラーはHTTPエラーにマッピングされる", func(t *testing.T) {
		handler := NewIngestionHandler(&stubIngestionService{err: model.ErrJobRunning}, testLogger())

		body := `{"title":"Livre","text":"Le chat dort."}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/books/ingest", strings.NewReader(body))
		rec := httptest.NewRecorder()

		handler.PostIngest(rec, req)

		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}
