// internal/llm/client.go
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"lecteuraide/internal/model"
	"lecteuraide/internal/pipeline"
)

// Client は chat-completions 互換の生成APIに対するJSONモードのクライアントです。
// pipeline.Segmenter / VocabularyExtractor / QuestionGenerator を実装します。
type Client struct {
	apiURL      string
	apiKey      string
	model       string
	temperature float64
	httpClient  *http.Client
	logger      *slog.Logger
}

func NewClient(apiURL, apiKey, modelName string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		apiURL:      apiURL,
		apiKey:      apiKey,
		model:       modelName,
		temperature: 0.2,
		httpClient:  &http.Client{Timeout: 90 * time.Second},
		logger:      logger,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	Temperature    float64        `json:"temperature"`
	ResponseFormat responseFormat `json:"response_format"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

const systemPrompt = "You are a reading assistant that prepares foreign-language novels " +
	"for language learners. Always answer with a single JSON object and nothing else."

// generateJSON はプロンプトを送り、応答のJSONを out にデコードします。
// ネットワーク障害・タイムアウト・429/5xx は一時障害、形式不正は Invalid として分類します。
func (c *Client) generateJSON(ctx context.Context, stage, prompt string, out any) error {
	reqBody := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature:    c.temperature,
		ResponseFormat: responseFormat{Type: "json_object"},
	}
	data, err := json.Marshal(reqBody)
	if err != nil {
		return pipeline.NewFatalError(stage, fmt.Errorf("marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(data))
	if err != nil {
		return pipeline.NewFatalError(stage, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pipeline.NewTransientError(stage, fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return pipeline.NewTransientError(stage, fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		c.logger.Warn("Generation API returned retryable status", "stage", stage, "status", resp.StatusCode)
		return pipeline.NewTransientError(stage, fmt.Errorf("api status %d", resp.StatusCode))
	}
	if resp.StatusCode != http.StatusOK {
		return pipeline.NewFatalError(stage, fmt.Errorf("api status %d: %s", resp.StatusCode, truncate(string(body), 200)))
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return pipeline.NewInvalidError(stage, fmt.Errorf("decode response: %w", err))
	}
	if chatResp.Error != nil {
		return pipeline.NewTransientError(stage, fmt.Errorf("api error: %s", chatResp.Error.Message))
	}
	if len(chatResp.Choices) == 0 || chatResp.Choices[0].Message.Content == "" {
		return pipeline.NewTransientError(stage, errors.New("empty completion"))
	}

	if err := json.Unmarshal([]byte(chatResp.Choices[0].Message.Content), out); err != nil {
		c.logger.Warn("Generation API returned malformed JSON payload", "stage", stage, "error", err)
		return pipeline.NewInvalidError(stage, fmt.Errorf("malformed payload: %w", err))
	}
	return nil
}

type segmentPayload struct {
	Scenes []struct {
		Title     string   `json:"title"`
		Summary   string   `json:"summary"`
		Sentences []string `json:"sentences"`
	} `json:"scenes"`
}

// SegmentChunk はチャンクをシーン/文の列に分割します (pipeline.Segmenter)
func (c *Client) SegmentChunk(ctx context.Context, chunkText string, chunkIndex, totalChunks int) ([]pipeline.SegmentedScene, error) {
	prompt := fmt.Sprintf(
		"You are segmenting a novel into concise scenes.\n"+
			"You are analysing chunk %d of %d.\n"+
			"Return JSON with an array named 'scenes'. Each scene must have fields:\n"+
			"- title: short descriptive title\n"+
			"- summary: one or two sentences in English summarizing the scene\n"+
			"- sentences: the scene's text as an ordered array of exact sentences from the chunk\n"+
			"Do not invent text. Preserve sentence order. Every sentence of the chunk must "+
			"appear in exactly one scene.\n"+
			"Input chunk text:\n%s",
		chunkIndex+1, totalChunks, chunkText,
	)

	var payload segmentPayload
	if err := c.generateJSON(ctx, "segmentation", prompt, &payload); err != nil {
		return nil, err
	}

	scenes := make([]pipeline.SegmentedScene, 0, len(payload.Scenes))
	for _, s := range payload.Scenes {
		if len(s.Sentences) == 0 {
			continue
		}
		scene := pipeline.SegmentedScene{Sentences: s.Sentences}
		if t := strings.TrimSpace(s.Title); t != "" {
			scene.Title = &t
		}
		if sum := strings.TrimSpace(s.Summary); sum != "" {
			scene.Summary = &sum
		}
		scenes = append(scenes, scene)
	}
	if len(scenes) == 0 {
		return nil, pipeline.NewInvalidError("segmentation", errors.New("response contained no usable scenes"))
	}
	return scenes, nil
}

type vocabularyPayload struct {
	Vocabulary []struct {
		Term            string `json:"term"`
		PartOfSpeech    string `json:"part_of_speech"`
		Definition      string `json:"definition"`
		ExampleSentence string `json:"example_sentence"`
	} `json:"vocabulary"`
}

// ExtractVocabulary はシーンの語彙リストを生成します (pipeline.VocabularyExtractor)。
// term を欠く不正な項目はエンティティに伝播させず、ここで除外します。
func (c *Client) ExtractVocabulary(ctx context.Context, sceneText string) ([]model.VocabularyItem, error) {
	prompt := fmt.Sprintf(
		"You are building a vocabulary list for advanced language learners.\n"+
			"Identify key vocabulary terms in the scene below.\n"+
			"Return JSON with an array named 'vocabulary'. Each item must have:\n"+
			"- term: the word or expression in the source language\n"+
			"- part_of_speech: optional abbreviated part of speech (e.g., 'n.', 'v.', 'adj.')\n"+
			"- definition: short English definition\n"+
			"- example_sentence: the sentence from the scene using the term\n"+
			"Focus on non-trivial, scene-specific vocabulary. An empty array is acceptable.\n"+
			"Scene:\n%s",
		sceneText,
	)

	var payload vocabularyPayload
	if err := c.generateJSON(ctx, "vocabulary", prompt, &payload); err != nil {
		return nil, err
	}

	items := make([]model.VocabularyItem, 0, len(payload.Vocabulary))
	for _, v := range payload.Vocabulary {
		term := strings.TrimSpace(v.Term)
		if term == "" {
			continue
		}
		items = append(items, model.VocabularyItem{
			Term:            term,
			PartOfSpeech:    strings.TrimSpace(v.PartOfSpeech),
			Definition:      strings.TrimSpace(v.Definition),
			ExampleSentence: strings.TrimSpace(v.ExampleSentence),
		})
	}
	return items, nil
}

type questionPayload struct {
	Questions []struct {
		Prompt  string `json:"prompt"`
		Options []struct {
			Text      string `json:"text"`
			IsCorrect bool   `json:"is_correct"`
		} `json:"options"`
	} `json:"questions"`
}

// GenerateQuestions はシーンの読解設問を生成します (pipeline.QuestionGenerator)。
// 空のプロンプト・空の選択肢テキストはここで落とし、正解数の検証は呼び出し側が行います。
func (c *Client) GenerateQuestions(ctx context.Context, sceneText string, vocab []model.VocabularyItem) ([]model.Question, error) {
	var vocabHint strings.Builder
	for _, v := range vocab {
		vocabHint.WriteString("- " + v.Term + "\n")
	}

	prompt := fmt.Sprintf(
		"You are writing multiple-choice comprehension questions about the scene below.\n"+
			"Return JSON with an array named 'questions'. Each question must have:\n"+
			"- prompt: the question in English\n"+
			"- options: exactly 4 options, each with 'text' and 'is_correct'; exactly one option is correct\n"+
			"Write at most 4 questions.\n"+
			"Key vocabulary of the scene:\n%s\n"+
			"Scene:\n%s",
		vocabHint.String(), sceneText,
	)

	var payload questionPayload
	if err := c.generateJSON(ctx, "questions", prompt, &payload); err != nil {
		return nil, err
	}

	questions := make([]model.Question, 0, len(payload.Questions))
	for _, q := range payload.Questions {
		question := model.Question{Prompt: strings.TrimSpace(q.Prompt)}
		for _, opt := range q.Options {
			text := strings.TrimSpace(opt.Text)
			if text == "" {
				continue
			}
			question.Options = append(question.Options, model.QuestionOption{Text: text, IsCorrect: opt.IsCorrect})
		}
		questions = append(questions, question)
	}
	return questions, nil
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
