package scheduler_test

import (
	"context"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/blueshift/internal/core/domain"
	"go.trai.ch/blueshift/internal/engine/scheduler"
)

func TestTaskBarrier_TwoPhase(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		b := scheduler.NewTaskBarrier([]domain.InternedString{name("A"), name("B")})
		b.Begin()

		released := make(chan error, 1)
		go func() { released <- b.AwaitAll(context.Background()) }()

		assert.False(t, b.RecordConfirm(name("A")), "confirmations before every grant are ignored")
		assert.False(t, b.RecordGrant(name("A")))
		assert.False(t, b.RecordGrant(name("A")), "repeated grants do not count")
		assert.False(t, b.RecordGrant(name("C")), "devices outside the set do not count")
		granted, confirmed := b.Counts()
		assert.Equal(t, 1, granted)
		assert.Equal(t, 0, confirmed)

		assert.True(t, b.RecordGrant(name("B")))
		assert.True(t, b.AllGranted())
		assert.False(t, b.RecordConfirm(name("A")))
		assert.False(t, b.RecordConfirm(name("A")))

		synctest.Wait()
		select {
		case <-released:
			t.Fatal("barrier released before every confirmation")
		default:
		}

		assert.True(t, b.RecordConfirm(name("B")))
		require.NoError(t, <-released)

		granted, confirmed = b.Counts()
		assert.Equal(t, 0, granted, "counters reset after release")
		assert.Equal(t, 0, confirmed)
		assert.False(t, b.RecordGrant(name("A")), "inactive until the next Begin")
	})
}

func TestTaskBarrier_AwaitHonoursContext(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		b := scheduler.NewTaskBarrier([]domain.InternedString{name("A")})
		b.Begin()

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		require.ErrorIs(t, b.AwaitAll(ctx), context.DeadlineExceeded)

		b.Cancel()
		assert.False(t, b.RecordGrant(name("A")))
	})
}
