// internal/model/progress.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// ReadingProgress は読者の「最後に読んだシーン」を表します。
// (user_id, book_id) の複合キーで、後勝ち (last-submitted-wins) で上書きされます。
type ReadingProgress struct {
	UserID         string    `gorm:"primaryKey;size:128" json:"user_id"`
	BookID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"book_id"`
	LastSceneIndex int       `gorm:"not null" json:"last_scene_index"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (ReadingProgress) TableName() string {
	return "reading_progress"
}

// 読書進捗の更新リクエストDTO
type PutReadingProgressRequest struct {
	SceneIndex *int `json:"scene_index" validate:"required,min=0"`
}

// 読書進捗のレスポンスDTO
type ReadingProgressResponse struct {
	BookID         uuid.UUID `json:"book_id"`
	LastSceneIndex int       `json:"last_scene_index"`
	UpdatedAt      time.Time `json:"updated_at"`
}
