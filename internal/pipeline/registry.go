// internal/pipeline/registry.go
package pipeline

import (
	"sync"

	"github.com/google/uuid"

	"lecteuraide/internal/model"
)

// Registry は「1冊につき同時に1ジョブ」をジョブ実行ロジックの外側で強制します。
// ジョブ開始時に取得し、終端遷移で解放します。
type Registry struct {
	mu     sync.Mutex
	active map[uuid.UUID]uuid.UUID // book_id -> job_id
}

func NewRegistry() *Registry {
	return &Registry{active: make(map[uuid.UUID]uuid.UUID)}
}

// Acquire は対象書籍のジョブ枠を取得します。既に実行中なら model.ErrJobRunning を返します。
func (r *Registry) Acquire(bookID, jobID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.active[bookID]; ok {
		return model.ErrJobRunning
	}
	r.active[bookID] = jobID
	return nil
}

// Release は書籍のジョブ枠を解放します。未取得の解放は無視されます。
func (r *Registry) Release(bookID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.active, bookID)
}

// ActiveJob は実行中のジョブIDを返します (監視・テスト用)
func (r *Registry) ActiveJob(bookID uuid.UUID) (uuid.UUID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	jobID, ok := r.active[bookID]
	return jobID, ok
}
