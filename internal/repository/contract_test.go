package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xiaot623/gogo/agentstatus/internal/domain"
)

func iteration(loop int) domain.Record {
	return domain.AgentIteration{
		Envelope: domain.Envelope{
			Time:          float64(1700000000 + loop),
			AgentID:       "a",
			AgentName:     "Agent A",
			AgentRunnerID: "r1a",
		},
		LoopCount: loop,
	}
}

// marshalHook runs itself whenever it is encoded, which happens while a backend
// holds a run inside Append.
type marshalHook func()

func (h marshalHook) MarshalJSON() ([]byte, error) {
	h()
	return []byte("null"), nil
}

// testRunStore checks the behavior every RunStore backend shares.
func testRunStore(t *testing.T, ctx context.Context, store RunStore) {
	t.Run("absent run loads nil", func(t *testing.T) {
		got, err := store.Load(ctx, "missing")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("append before start", func(t *testing.T) {
		err := store.Append(ctx, "never-started", iteration(0))
		assert.ErrorIs(t, err, domain.ErrRunNotStarted)
	})

	t.Run("started run is empty", func(t *testing.T) {
		require.NoError(t, store.Start(ctx, "empty"))
		got, err := store.Load(ctx, "empty")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, 0, got.Len())
	})

	t.Run("appends keep order", func(t *testing.T) {
		require.NoError(t, store.Start(ctx, "ordered"))
		require.NoError(t, store.Append(ctx, "ordered", domain.AgentStarted{Envelope: domain.Envelope{AgentRunnerID: "r1a"}}))
		require.NoError(t, store.Append(ctx, "ordered", iteration(0)))
		require.NoError(t, store.Append(ctx, "ordered", domain.AgentFinished{Envelope: domain.Envelope{AgentRunnerID: "r1a"}}))

		got, err := store.Load(ctx, "ordered")
		require.NoError(t, err)
		require.Equal(t, 3, got.Len())
		assert.Equal(t, domain.RecordAgentStarted, got.Items[0].Type())
		assert.Equal(t, domain.RecordAgentIteration, got.Items[1].Type())
		assert.Equal(t, domain.RecordAgentFinished, got.Items[2].Type())
		assert.Nil(t, got.Items[0].Header().CallingAgentID)
	})

	t.Run("start resets", func(t *testing.T) {
		require.NoError(t, store.Start(ctx, "reset"))
		require.NoError(t, store.Append(ctx, "reset", iteration(0)))
		require.NoError(t, store.Start(ctx, "reset"))
		got, err := store.Load(ctx, "reset")
		require.NoError(t, err)
		assert.Equal(t, 0, got.Len())
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		require.NoError(t, store.Start(ctx, "gone"))
		require.NoError(t, store.Delete(ctx, "gone"))
		require.NoError(t, store.Delete(ctx, "gone"))
		got, err := store.Load(ctx, "gone")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("delete waits for a running append", func(t *testing.T) {
		require.NoError(t, store.Start(ctx, "racing"))

		deleted := make(chan error, 1)
		var once sync.Once
		hook := marshalHook(func() {
			once.Do(func() {
				go func() { deleted <- store.Delete(ctx, "racing") }()
				// Give an unsynchronized delete the chance to land mid-append.
				select {
				case err := <-deleted:
					deleted <- err
				case <-time.After(50 * time.Millisecond):
				}
			})
		})
		rec := domain.ProviderRequest{
			Envelope:    domain.Envelope{AgentRunnerID: "r1a"},
			ModelConfig: map[string]any{"hook": hook},
		}
		require.NoError(t, store.Append(ctx, "racing", rec))
		require.NoError(t, <-deleted)

		got, err := store.Load(ctx, "racing")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("runs are isolated", func(t *testing.T) {
		require.NoError(t, store.Start(ctx, "left"))
		require.NoError(t, store.Start(ctx, "right"))
		require.NoError(t, store.Append(ctx, "left", iteration(0)))

		right, err := store.Load(ctx, "right")
		require.NoError(t, err)
		assert.Equal(t, 0, right.Len())
	})

	t.Run("concurrent appends", func(t *testing.T) {
		const writers, perWriter = 8, 10
		require.NoError(t, store.Start(ctx, "busy"))

		var wg sync.WaitGroup
		errs := make(chan error, writers*perWriter)
		for w := 0; w < writers; w++ {
			wg.Add(1)
			go func(w int) {
				defer wg.Done()
				for i := 0; i < perWriter; i++ {
					if err := store.Append(ctx, "busy", iteration(w*perWriter+i)); err != nil {
						errs <- fmt.Errorf("writer %d: %w", w, err)
					}
				}
			}(w)
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			t.Error(err)
		}

		got, err := store.Load(ctx, "busy")
		require.NoError(t, err)
		assert.Equal(t, writers*perWriter, got.Len())
	})
}
