package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"lecteuraide/internal/pipeline"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newChatServer は chat-completions 互換の応答を返すテストサーバを立てます。
// content には生成結果のJSON文字列を渡します。
func newChatServer(t *testing.T, status int, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}

		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": content}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
}

func TestClient_SegmentChunk(t *testing.T) {
	t.Run("正常系: シーン列をパースする", func(t *testing.T) {
		payload := `{"scenes":[
			{"title":"Ouverture","summary":"The cat sleeps.","sentences":["Le chat dort.","Il rêve."]},
			{"title":"","summary":"","sentences":["Le matin arrive."]},
			{"title":"Vide","summary":"No sentences.","sentences":[]}
		]}`
		server := newChatServer(t, http.StatusOK, payload)
		defer server.Close()

		client := NewClient(server.URL, "test-key", "test-model", nil)
		scenes, err := client.SegmentChunk(context.Background(), "Le chat dort. Il rêve. Le matin arrive.", 0, 1)
		require.NoError(t, err)

		require.Len(t, scenes, 2, "文のないシーンは除外される")
		require.NotNil(t, scenes[0].Title)
		assert.Equal(t, "Ouverture", *scenes[0].Title)
		assert.Equal(t, []string{"Le chat dort.", "Il rêve."}, scenes[0].Sentences)
		assert.Nil(t, scenes[1].Title, "空タイトルはnilになる")
	})

	t.Run("異常系: 5xxは一時障害として分類される", func(t *testing.T) {
		server := newChatServer(t, http.StatusInternalServerError, "")
		defer server.Close()

		client := NewClient(server.URL, "test-key", "test-model", nil)
		_, err := client.SegmentChunk(context.Background(), "texte", 0, 1)
		require.Error(t, err)
		assert.Equal(t, pipeline.ErrKindTransient, pipeline.ClassifyError(err))
	})

	t.Run("異常系: 429は一時障害として分類される", func(t *testing.T) {
		server := newChatServer(t, http.StatusTooManyRequests, "")
		defer server.Close()

		client := NewClient(server.URL, "test-key", "test-model", nil)
		_, err := client.SegmentChunk(context.Background(), "texte", 0, 1)
		require.Error(t, err)
		assert.Equal(t, pipeline.ErrKindTransient, pipeline.ClassifyError(err))
	})

	t.Run("異常系: 形式不正なJSONはInvalidとして分類される", func(t *testing.T) {
		server := newChatServer(t, http.StatusOK, `{"scenes": not-json`)
		defer server.Close()

		client := NewClient(server.URL, "test-key", "test-model", nil)
		_, err := client.SegmentChunk(context.Background(), "texte", 0, 1)
		require.Error(t, err)
		assert.Equal(t, pipeline.ErrKindInvalid, pipeline.ClassifyError(err))
	})

	t.Run("異常系: シーンが1つも得られない応答はInvalid", func(t *testing.T) {
		server := newChatServer(t, http.StatusOK, `{"scenes":[]}`)
		defer server.Close()

		client := NewClient(server.URL, "test-key", "test-model", nil)
		_, err := client.SegmentChunk(context.Background(), "texte", 0, 1)
		require.Error(t, err)
		assert.Equal(t, pipeline.ErrKindInvalid, pipeline.ClassifyError(err))
	})

	t.Run("異常系: 接続不能は一時障害として分類される", func(t *testing.T) {
		client := NewClient("http://127.0.0.1:1", "test-key", "test-model", nil)
		_, err := client.SegmentChunk(context.Background(), "texte", 0, 1)
		require.Error(t, err)
		assert.Equal(t, pipeline.ErrKindTransient, pipeline.ClassifyError(err))
	})
}

func TestClient_ExtractVocabulary(t *testing.T) {
	t.Run("正常系: termを欠く項目は除外される", func(t *testing.T) {
		payload := `{"vocabulary":[
			{"term":"gribouiller","part_of_speech":"v.","definition":"to scribble","example_sentence":"Il gribouille."},
			{"term":"  ","definition":"empty term"},
			{"term":"flâner","definition":"to stroll"}
		]}`
		server := newChatServer(t, http.StatusOK, payload)
		defer server.Close()

		client := NewClient(server.URL, "test-key", "test-model", nil)
		items, err := client.ExtractVocabulary(context.Background(), "scene text")
		require.NoError(t, err)

		require.Len(t, items, 2)
		assert.Equal(t, "gribouiller", items[0].Term)
		assert.Equal(t, "v.", items[0].PartOfSpeech)
		assert.Equal(t, "flâner", items[1].Term)
	})

	t.Run("正常系: 空の語彙リストは正常", func(t *testing.T) {
		server := newChatServer(t, http.StatusOK, `{"vocabulary":[]}`)
		defer server.Close()

		client := NewClient(server.URL, "test-key", "test-model", nil)
		items, err := client.ExtractVocabulary(context.Background(), "scene text")
		require.NoError(t, err)
		assert.Empty(t, items)
	})
}

func TestClient_GenerateQuestions(t *testing.T) {
	t.Run("正常系: 空テキストの選択肢は落とされる", func(t *testing.T) {
		payload := `{"questions":[
			{"prompt":"Why?","options":[
				{"text":"A","is_correct":true},
				{"text":"  ","is_correct":false},
				{"text":"B","is_correct":false}
			]}
		]}`
		server := newChatServer(t, http.StatusOK, payload)
		defer server.Close()

		client := NewClient(server.URL, "test-key", "test-model", nil)
		questions, err := client.GenerateQuestions(context.Background(), "scene text", nil)
		require.NoError(t, err)

		require.Len(t, questions, 1)
		assert.Equal(t, "Why?", questions[0].Prompt)
		require.Len(t, questions[0].Options, 2)
		assert.True(t, questions[0].Options[0].IsCorrect)
	})
}

func TestClient_EmptyCompletion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", "test-model", nil)
	_, err := client.ExtractVocabulary(context.Background(), "scene text")
	require.Error(t, err)
	assert.Equal(t, pipeline.ErrKindTransient, pipeline.ClassifyError(err))

	var stageErr *pipeline.StageError
	require.True(t, errors.As(err, &stageErr))
	assert.Equal(t, "vocabulary", stageErr.Stage)
}
