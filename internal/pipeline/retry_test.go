package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRetryPolicy_Do(t *testing.T) {
	policy := RetryPolicy{
		MaxAttempts: 3,
		BackoffBase: time.Millisecond,
	}

	t.Run("正常系: 1回目で成功すればリトライしない", func(t *testing.T) {
		attempts := 0
		err := policy.Do(context.Background(), func(ctx context.Context) error {
			attempts++
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 1, attempts)
	})

	t.Run("正常系: 一時障害は成功するまでリトライされる", func(t *testing.T) {
		attempts := 0
		err := policy.Do(context.Background(), func(ctx context.Context) error {
			attempts++
			if attempts < 3 {
				return NewTransientError("translation", errors.New("service unavailable"))
			}
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 3, attempts)
	})

	t.Run("異常系: 一時障害は上限で打ち切られ最後のエラーを返す", func(t *testing.T) {
		attempts := 0
		wantErr := NewTransientError("translation", errors.New("still down"))
		err := policy.Do(context.Background(), func(ctx context.Context) error {
			attempts++
			return wantErr
		})
		assert.ErrorIs(t, err, wantErr.Err)
		assert.Equal(t, 3, attempts)
	})

	t.Run("異常系: 致命的エラーはリトライされない", func(t *testing.T) {
		attempts := 0
		err := policy.Do(context.Background(), func(ctx context.Context) error {
			attempts++
			return NewFatalError("segmentation", errors.New("bad request"))
		})
		assert.Error(t, err)
		assert.Equal(t, 1, attempts)
	})

	t.Run("異常系: 形式不正エラーはリトライされない", func(t *testing.T) {
		attempts := 0
		err := policy.Do(context.Background(), func(ctx context.Context) error {
			attempts++
			return NewInvalidError("questions", errors.New("malformed payload"))
		})
		assert.Error(t, err)
		assert.Equal(t, 1, attempts)
	})

	t.Run("異常系: コンテキストキャンセルで中断される", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		attempts := 0
		err := policy.Do(ctx, func(ctx context.Context) error {
			attempts++
			cancel()
			return NewTransientError("vocabulary", errors.New("timeout"))
		})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, attempts)
	})

	t.Run("正常系: 各試行にステージタイムアウトが適用される", func(t *testing.T) {
		timeoutPolicy := RetryPolicy{
			MaxAttempts:  2,
			BackoffBase:  time.Millisecond,
			StageTimeout: 10 * time.Millisecond,
		}
		attempts := 0
		err := timeoutPolicy.Do(context.Background(), func(ctx context.Context) error {
			attempts++
			<-ctx.Done()
			return ctx.Err()
		})
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Equal(t, 2, attempts, "タイムアウトは一時障害としてリトライされる")
	})
}

func TestClassifyError(t *testing.T) {
	assert.Equal(t, ErrKindTransient, ClassifyError(NewTransientError("s", errors.New("x"))))
	assert.Equal(t, ErrKindFatal, ClassifyError(NewFatalError("s", errors.New("x"))))
	assert.Equal(t, ErrKindInvalid, ClassifyError(NewInvalidError("s", errors.New("x"))))
	assert.Equal(t, ErrKindTransient, ClassifyError(context.DeadlineExceeded))
	assert.Equal(t, ErrKindFatal, ClassifyError(errors.New("unknown")))
}
