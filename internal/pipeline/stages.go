// internal/pipeline/stages.go
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"lecteuraide/internal/model"
)

// ステージエラーの分類。リトライ方針はランナー側が一元的に決めるため、
// ステージは失敗の種別だけを返します。
type ErrorKind int

const (
	ErrKindTransient ErrorKind = iota // 外部依存の一時障害 (タイムアウト・5xx)。リトライ対象。
	ErrKindFatal                      // 回復不能。リトライしない。
	ErrKindInvalid                    // 外部出力の形式不正。リトライしない。
)

// StageError はステージ実行の失敗を種別付きで表します
type StageError struct {
	Stage string
	Kind  ErrorKind
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func NewTransientError(stage string, err error) *StageError {
	return &StageError{Stage: stage, Kind: ErrKindTransient, Err: err}
}

func NewFatalError(stage string, err error) *StageError {
	return &StageError{Stage: stage, Kind: ErrKindFatal, Err: err}
}

func NewInvalidError(stage string, err error) *StageError {
	return &StageError{Stage: stage, Kind: ErrKindInvalid, Err: err}
}

// ErrUntranslatable は「サービスは生きているが入力が翻訳不能」を表します。
// リトライせず、品質フラグを付けて続行します。
var ErrUntranslatable = errors.New("untranslatable input")

// ClassifyError はエラーのリトライ可否を判定します。
// ステージ呼び出しのタイムアウトは一時障害と同じ扱いです。
func ClassifyError(err error) ErrorKind {
	var stageErr *StageError
	if errors.As(err, &stageErr) {
		return stageErr.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrKindTransient
	}
	return ErrKindFatal
}

// SegmentedScene はセグメンタが1チャンクから切り出したシーン候補です
type SegmentedScene struct {
	Title     *string
	Summary   *string
	Sentences []string
}

// Segmenter はチャンクをシーン/文の列に分割します。
// 1文も切り出せない入力は失敗であり、チャンクのテキストを黙って捨てることはありません。
type Segmenter interface {
	SegmentChunk(ctx context.Context, chunkText string, chunkIndex, totalChunks int) ([]SegmentedScene, error)
}

// Translator は1文を翻訳します。サービス障害 (リトライ可) と
// 翻訳不能な入力 (ErrUntranslatable) を区別して返します。
type Translator interface {
	TranslateSentence(ctx context.Context, text, sourceLang, targetLang string) (string, error)
}

// VocabularyExtractor はシーンから語彙を抽出します。空の結果は正常です。
type VocabularyExtractor interface {
	ExtractVocabulary(ctx context.Context, sceneText string) ([]model.VocabularyItem, error)
}

// QuestionGenerator はシーンの読解設問を生成します。
// 正解がちょうど1つでない設問は呼び出し側で破棄されます。
type QuestionGenerator interface {
	GenerateQuestions(ctx context.Context, sceneText string, vocab []model.VocabularyItem) ([]model.Question, error)
}

// Stages は1ジョブが使うステージ実装の束です
type Stages struct {
	Segmenter  Segmenter
	Translator Translator
	Vocabulary VocabularyExtractor
	Questions  QuestionGenerator
}
