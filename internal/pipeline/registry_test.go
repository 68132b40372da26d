package pipeline

import (
	"testing"

	"lecteuraide/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	bookID := uuid.New()
	jobID := uuid.New()

	t.Run("正常系: 取得と解放", func(t *testing.T) {
		require.NoError(t, reg.Acquire(bookID, jobID))

		got, ok := reg.ActiveJob(bookID)
		assert.True(t, ok)
		assert.Equal(t, jobID, got)

		reg.Release(bookID)
		_, ok = reg.ActiveJob(bookID)
		assert.False(t, ok)
	})

	t.Run("異常系: 同一書籍の二重取得はErrJobRunning", func(t *testing.T) {
		require.NoError(t, reg.Acquire(bookID, jobID))
		defer reg.Release(bookID)

		err := reg.Acquire(bookID, uuid.New())
		assert.ErrorIs(t, err, model.ErrJobRunning)

		// 別の書籍は影響を受けない
		other := uuid.New()
		assert.NoError(t, reg.Acquire(other, uuid.New()))
		reg.Release(other)
	})

	t.Run("正常系: 解放後は再取得できる", func(t *testing.T) {
		require.NoError(t, reg.Acquire(bookID, jobID))
		reg.Release(bookID)
		assert.NoError(t, reg.Acquire(bookID, uuid.New()))
		reg.Release(bookID)
	})
}
