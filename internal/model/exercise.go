// internal/model/exercise.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// VocabularyItem はシーンから抽出された語彙エントリ
type VocabularyItem struct {
	Term            string `json:"term"`
	PartOfSpeech    string `json:"part_of_speech,omitempty"`
	Definition      string `json:"definition,omitempty"`
	ExampleSentence string `json:"example_sentence,omitempty"`
}

// QuestionOption は設問の選択肢
type QuestionOption struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

// Question は読解設問。正解の選択肢はちょうど1つでなければなりません。
type Question struct {
	Prompt  string           `json:"prompt"`
	Options []QuestionOption `json:"options"`
}

// SceneExercise はシーンごとの語彙・設問 (シーンにつき最大1件)
type SceneExercise struct {
	ExerciseID   uuid.UUID        `gorm:"type:uuid;primaryKey" json:"exercise_id"`
	SceneID      uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex" json:"-"`
	Vocabulary   []VocabularyItem `gorm:"serializer:json" json:"vocabulary"`
	Questions    []Question       `gorm:"serializer:json" json:"questions"`
	QualityFlags []QualityFlag    `gorm:"serializer:json" json:"quality_flags,omitempty"`
	Reviewed     bool             `gorm:"default:false" json:"reviewed"` // 人手レビュー済みフラグ (レビュー自体は対象外)
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

func (SceneExercise) TableName() string {
	return "scene_exercises"
}
