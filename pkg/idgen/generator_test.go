package idgen

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSnowflakeGenerator(t *testing.T) {
	t.Run("rejects node id out of range", func(t *testing.T) {
		_, err := NewSnowflakeGenerator(1024)

		assert.Error(t, err)
	})

	t.Run("accepts node id in range", func(t *testing.T) {
		gen, err := NewSnowflakeGenerator(1)

		require.NoError(t, err)
		assert.NotNil(t, gen)
	})
}

func TestSnowflakeGenerator_GenerateID(t *testing.T) {
	gen, err := NewSnowflakeGenerator(7)
	require.NoError(t, err)

	const workers, perWorker = 8, 250
	ids := make(chan int64, workers*perWorker)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				ids <- gen.GenerateID()
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[int64]struct{}, workers*perWorker)
	for id := range ids {
		assert.Positive(t, id)
		_, dup := seen[id]
		assert.False(t, dup, "duplicate id %d", id)
		seen[id] = struct{}{}
	}
	assert.Len(t, seen, workers*perWorker)
}

func TestTimestampAndNode(t *testing.T) {
	gen, err := NewSnowflakeGenerator(42)
	require.NoError(t, err)

	before := time.Now().Add(-time.Second)
	id := gen.GenerateID()
	after := time.Now().Add(time.Second)

	ts := Timestamp(id)
	assert.True(t, ts.After(before) && ts.Before(after), "timestamp %s outside [%s, %s]", ts, before, after)
	assert.Equal(t, int64(42), Node(id))
}

func TestGenerateID_Increasing(t *testing.T) {
	gen, err := NewSnowflakeGenerator(1)
	require.NoError(t, err)

	prev := gen.GenerateID()
	for i := 0; i < 100; i++ {
		next := gen.GenerateID()
		assert.Greater(t, next, prev)
		prev = next
	}
}
