// internal/model/scene.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// QualityFlag は「劣化したが保存はされた」結果に付く注釈です。
// 自由記述のバッグにせず、閉じた列挙として扱います。
type QualityFlag string

const (
	FlagTranslationFailed QualityFlag = "translation_failed" // 翻訳リトライ枯渇
	FlagVocabularyFailed  QualityFlag = "vocabulary_failed"  // 語彙抽出リトライ枯渇
	FlagQuestionsFailed   QualityFlag = "questions_failed"   // 設問生成リトライ枯渇
	FlagHardSplit         QualityFlag = "hard_split"         // 段落がチャンク上限を超え強制分割
	FlagQuestionDropped   QualityFlag = "question_dropped"   // 不正な設問を破棄
)

// Scene は書籍内の連続した物語単位を表します
type Scene struct {
	SceneID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"scene_id"`
	BookID     uuid.UUID `gorm:"type:uuid;not null;index:idx_book_scene,unique" json:"-"`
	SceneIndex int       `gorm:"not null;index:idx_book_scene,unique" json:"scene_index"` // 書籍内で連番 (0始まり)
	Title      *string   `json:"title,omitempty"`
	Summary    *string   `json:"summary,omitempty"`
	RawText    string    `gorm:"not null" json:"raw_text"`
	CreatedAt  time.Time `json:"created_at"`

	// 関連 (Preload用)
	Sentences []Sentence     `gorm:"foreignKey:SceneID;references:SceneID" json:"-"`
	Exercise  *SceneExercise `gorm:"foreignKey:SceneID;references:SceneID" json:"-"`
}

func (Scene) TableName() string {
	return "scenes"
}

// Sentence はシーン内の一文を表します。翻訳は成功するまで未設定のままです。
type Sentence struct {
	SentenceID     uuid.UUID     `gorm:"type:uuid;primaryKey" json:"sentence_id"`
	SceneID        uuid.UUID     `gorm:"type:uuid;not null;index:idx_scene_sentence,unique" json:"-"`
	SentenceIndex  int           `gorm:"not null;index:idx_scene_sentence,unique" json:"sentence_index"` // シーン内で連番 (0始まり)
	SourceText     string        `gorm:"not null" json:"source_text"`
	TranslatedText *string       `json:"translated_text,omitempty"`
	QualityFlags   []QualityFlag `gorm:"serializer:json" json:"quality_flags,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
}

func (Sentence) TableName() string {
	return "sentences"
}
