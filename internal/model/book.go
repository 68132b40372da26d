// internal/model/book.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Book は取り込まれた書籍を表します
type Book struct {
	BookID       uuid.UUID      `gorm:"type:uuid;primaryKey" json:"book_id"`
	Title        string         `gorm:"not null" json:"title"`
	Author       string         `json:"author"`
	LanguageCode string         `gorm:"not null;default:fr" json:"language_code"` // 原文の言語コード
	IsPublic     bool           `gorm:"default:false" json:"is_public"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`

	// 関連 (Preload用)
	Scenes []Scene `gorm:"foreignKey:BookID;references:BookID" json:"-"`
}

func (Book) TableName() string {
	return "books"
}

// 取り込みリクエストDTO
type IngestBookRequest struct {
	Title        string `json:"title" validate:"required,min=1,max=256"`
	Author       string `json:"author" validate:"omitempty,max=256"`
	LanguageCode string `json:"language_code" validate:"omitempty,bcp47_language_tag"`
	Text         string `json:"text" validate:"required,min=1"`
}

// 書籍一覧のレスポンスDTO (取り込み完了済みの書籍のみ)
type BookSummaryResponse struct {
	BookID       uuid.UUID `json:"book_id"`
	Title        string    `json:"title"`
	Author       string    `json:"author"`
	LanguageCode string    `json:"language_code"`
	CreatedAt    time.Time `json:"created_at"`
	SceneCount   int64     `json:"scene_count"`
}

// 書籍詳細のレスポンスDTO (シーン・文・練習問題を含む)
type BookDetailResponse struct {
	BookID       uuid.UUID       `json:"book_id"`
	Title        string          `json:"title"`
	Author       string          `json:"author"`
	LanguageCode string          `json:"language_code"`
	CreatedAt    time.Time       `json:"created_at"`
	Scenes       []SceneResponse `json:"scenes"`
}

type SceneResponse struct {
	SceneID    uuid.UUID          `json:"scene_id"`
	SceneIndex int                `json:"scene_index"`
	Title      *string            `json:"title,omitempty"`
	Summary    *string            `json:"summary,omitempty"`
	Sentences  []SentenceResponse `json:"sentences"`
	Vocabulary []VocabularyItem   `json:"vocabulary"`
	Questions  []Question         `json:"questions"`
}

type SentenceResponse struct {
	SentenceIndex  int           `json:"sentence_index"`
	SourceText     string        `json:"source_text"`
	TranslatedText *string       `json:"translated_text,omitempty"`
	QualityFlags   []QualityFlag `json:"quality_flags,omitempty"`
}
