// internal/pipeline/retry.go
package pipeline

import (
	"context"
	"time"
)

// RetryPolicy は一時障害に対する有限リトライの方針です。
// 方針はここに集約し、ステージ実装は純粋な入力→出力に保ちます。
type RetryPolicy struct {
	MaxAttempts  int
	BackoffBase  time.Duration
	StageTimeout time.Duration
}

// Do は op を最大 MaxAttempts 回まで実行します。リトライするのは一時障害
// (ErrKindTransient、タイムアウト含む) のみで、待ち時間は指数的に伸びます。
// 各試行には StageTimeout が適用されます。
func (p RetryPolicy) Do(ctx context.Context, op func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		attemptCtx := ctx
		var cancel context.CancelFunc
		if p.StageTimeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, p.StageTimeout)
		}
		err := op(attemptCtx)
		if cancel != nil {
			cancel()
		}
		if err == nil {
			return nil
		}
		lastErr = err

		if ClassifyError(err) != ErrKindTransient {
			return err
		}
		if attempt == attempts {
			break
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		backoff := p.BackoffBase << (attempt - 1)
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return lastErr
}
