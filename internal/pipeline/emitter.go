// internal/pipeline/emitter.go
package pipeline

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
)

type EventType string

const (
	EventProgress  EventType = "progress"
	EventCompleted EventType = "completed"
	EventError     EventType = "error"
)

// Event は進捗ストリームの1イベントです。completed / error は終端イベントで、
// 1ストリームにつきちょうど1回、必ず最後に配信されます。
type Event struct {
	Type            EventType
	ProcessedChunks int
	TotalChunks     int
	BookID          uuid.UUID
	SceneCount      int
	Message         string
}

// MarshalJSON はイベント種別ごとのワイヤ形式 (1行1レコード) を生成します
func (e Event) MarshalJSON() ([]byte, error) {
	switch e.Type {
	case EventProgress:
		return json.Marshal(struct {
			Type            EventType `json:"type"`
			ProcessedChunks int       `json:"processed_chunks"`
			TotalChunks     int       `json:"total_chunks"`
		}{e.Type, e.ProcessedChunks, e.TotalChunks})
	case EventCompleted:
		return json.Marshal(struct {
			Type       EventType `json:"type"`
			BookID     uuid.UUID `json:"book_id"`
			SceneCount int       `json:"scene_count"`
		}{e.Type, e.BookID, e.SceneCount})
	default:
		return json.Marshal(struct {
			Type    EventType `json:"type"`
			Message string    `json:"message"`
		}{EventError, e.Message})
	}
}

// Emitter はランナーのコールバックを購読者向けのイベント列に変換します。
// ジョブの実行は購読者に依存しません: 進捗イベントは消費が遅ければ捨てられますが、
// 終端イベント用にバッファを1枠確保してあるため、送信側がブロックすることはありません。
type Emitter struct {
	ch chan Event

	mu            sync.Mutex
	lastProcessed int
	terminated    bool
}

func NewEmitter(buffer int) *Emitter {
	if buffer < 2 {
		buffer = 2
	}
	return &Emitter{ch: make(chan Event, buffer)}
}

// Events は購読用チャネルを返します。終端イベントの後にクローズされます。
func (e *Emitter) Events() <-chan Event {
	return e.ch
}

// Progress はチャンク完了を通知します。processed は単調非減少にクランプされ、
// total を超えることはありません。
func (e *Emitter) Progress(processed, total int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.terminated {
		return
	}
	if processed < e.lastProcessed {
		processed = e.lastProcessed
	}
	if processed > total {
		processed = total
	}
	e.lastProcessed = processed

	ev := Event{Type: EventProgress, ProcessedChunks: processed, TotalChunks: total}
	// 終端イベント用の1枠を残して非ブロッキング送信
	if len(e.ch) < cap(e.ch)-1 {
		e.ch <- ev
	}
}

// Completed は成功の終端イベントを送ってストリームを閉じます
func (e *Emitter) Completed(bookID uuid.UUID, sceneCount int) {
	e.terminate(Event{Type: EventCompleted, BookID: bookID, SceneCount: sceneCount})
}

// Fail は失敗の終端イベントを送ってストリームを閉じます
func (e *Emitter) Fail(message string) {
	e.terminate(Event{Type: EventError, Message: message})
}

func (e *Emitter) terminate(ev Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.terminated {
		return
	}
	e.terminated = true
	// Progress が1枠残しているため、ここでの送信はブロックしない
	e.ch <- ev
	close(e.ch)
}
