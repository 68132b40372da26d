// internal/model/job.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// JobStatus は取り込みジョブの状態。pending → running → {completed | failed} と単調に遷移し、
// 終端状態から戻ることはありません。
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// IsTerminal は終端状態かどうかを返します
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// JobStepName はジョブ内ステップの閉じた列挙
type JobStepName string

const (
	StepChunking     JobStepName = "chunking"
	StepSegmentation JobStepName = "segmentation"
	StepTranslation  JobStepName = "translation"
	StepExercises    JobStepName = "exercises"
	StepFinalize     JobStepName = "finalize"
)

// JobStepState はステップの状態
type JobStepState string

const (
	StepStatePending   JobStepState = "pending"
	StepStateRunning   JobStepState = "running"
	StepStateCompleted JobStepState = "completed"
	StepStateFailed    JobStepState = "failed"
	StepStateDegraded  JobStepState = "degraded" // リトライ枯渇でフラグ付き継続
)

// JobStep はジョブの進行記録の1エントリ
type JobStep struct {
	Name      JobStepName  `json:"name"`
	State     JobStepState `json:"state"`
	Timestamp time.Time    `json:"timestamp"`
}

// IngestionJob は1回の取り込み実行の永続的な記録です。
// 状態遷移の書き込みはジョブを所有するランナーのみが行います。
type IngestionJob struct {
	JobID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"job_id"`
	BookID      uuid.UUID `gorm:"type:uuid;not null;index" json:"book_id"`
	Status      JobStatus `gorm:"not null;default:pending" json:"status"`
	Steps       []JobStep `gorm:"serializer:json" json:"steps"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
	ErrorDetail *string   `json:"error,omitempty"`
	FailedChunk *int      `json:"failed_chunk,omitempty"` // 致命的エラーが起きたチャンク番号 (1始まり)
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (IngestionJob) TableName() string {
	return "ingestion_jobs"
}

// UpsertStep は同名ステップの状態を更新し、無ければ末尾に追加します
func (j *IngestionJob) UpsertStep(name JobStepName, state JobStepState, now time.Time) {
	for i := range j.Steps {
		if j.Steps[i].Name == name {
			j.Steps[i].State = state
			j.Steps[i].Timestamp = now
			return
		}
	}
	j.Steps = append(j.Steps, JobStep{Name: name, State: state, Timestamp: now})
}
