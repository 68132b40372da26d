// internal/handlers/progress_handler_test.go
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"lecteuraide/internal/middleware"
	"lecteuraide/internal/model"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubProgressService は service.ProgressService のテスト用実装
type stubProgressService struct {
	lastUserID string
	lastIndex  int
	resp       *model.ReadingProgressResponse
	err        error
}

func (s *stubProgressService) UpsertProgress(ctx context.Context, userID string, bookID uuid.UUID, sceneIndex int) (*model.ReadingProgressResponse, error) {
	s.lastUserID = userID
	s.lastIndex = sceneIndex
	if s.err != nil {
		return nil, s.err
	}
	return s.resp, nil
}

func (s *stubProgressService) GetProgress(ctx context.Context, userID string, bookID uuid.UUID) (*model.ReadingProgressResponse, error) {
	s.lastUserID = userID
	if s.err != nil {
		return nil, s.err
	}
	return s.resp, nil
}

func newProgressRouter(svc *stubProgressService) *chi.Mux {
	handler := NewProgressHandler(svc, testLogger())
	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(middleware.UserIdentifier)
		r.Put("/books/{book_id}/progress", handler.PutProgress)
		r.Get("/books/{book_id}/progress", handler.GetProgress)
	})
	return r
}

func TestProgressHandler_PutProgress(t *testing.T) {
	bookID := uuid.New()

	t.Run("正常系: 進捗が保存される", func(t *testing.T) {
		svc := &stubProgressService{
			resp: &model.ReadingProgressResponse{BookID: bookID, LastSceneIndex: 5},
		}
		req := httptest.NewRequest(http.MethodPut, "/books/"+bookID.String()+"/progress", strings.NewReader(`{"scene_index":5}`))
		req.Header.Set("X-User-ID", "reader-1")
		rec := httptest.NewRecorder()

		newProgressRouter(svc).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "reader-1", svc.lastUserID)
		assert.Equal(t, 5, svc.lastIndex)

		var got model.ReadingProgressResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, 5, got.LastSceneIndex)
	})

	t.Run("異常系: X-User-IDヘッダーがないと403", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, "/books/"+bookID.String()+"/progress", strings.NewReader(`{"scene_index":5}`))
		rec := httptest.NewRecorder()

		newProgressRouter(&stubProgressService{}).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("異常系: scene_index欠落はバリデーションエラー", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, "/books/"+bookID.String()+"/progress", strings.NewReader(`{}`))
		req.Header.Set("X-User-ID", "reader-1")
		rec := httptest.NewRecorder()

		newProgressRouter(&stubProgressService{}).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		var resp model.APIErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
	})

	t.Run("異常系: 負のscene_indexは400", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, "/books/"+bookID.String()+"/progress", strings.NewReader(`{"scene_index":-1}`))
		req.Header.Set("X-User-ID", "reader-1")
		rec := httptest.NewRecorder()

		newProgressRouter(&stubProgressService{}).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestProgressHandler_GetProgress(t *testing.T) {
	bookID := uuid.New()

	t.Run("正常系: 進捗を返す", func(t *testing.T) {
		svc := &stubProgressService{
			resp: &model.ReadingProgressResponse{BookID: bookID, LastSceneIndex: 2},
		}
		req := httptest.NewRequest(http.MethodGet, "/books/"+bookID.String()+"/progress", nil)
		req.Header.Set("X-User-ID", "reader-1")
		rec := httptest.NewRecorder()

		newProgressRouter(svc).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		var got model.ReadingProgressResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, 2, got.LastSceneIndex)
	})

	t.Run("異常系: 未記録の進捗は404", func(t *testing.T) {
		svc := &stubProgressService{err: model.ErrNotFound}
		req := httptest.NewRequest(http.MethodGet, "/books/"+bookID.String()+"/progress", nil)
		req.Header.Set("X-User-ID", "reader-1")
		rec := httptest.NewRecorder()

		newProgressRouter(svc).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
