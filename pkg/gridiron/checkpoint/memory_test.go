package checkpoint_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridironlabs/gridiron/pkg/gridiron/checkpoint"
)

func TestMemoryStore_Len(t *testing.T) {
	store := checkpoint.NewMemoryStore()
	defer store.Close()

	assert.Equal(t, 0, store.Len())

	require.NoError(t, store.Save("session-1", []byte("a")))
	assert.Equal(t, 1, store.Len())

	require.NoError(t, store.Save("session-2", []byte("b")))
	assert.Equal(t, 2, store.Len())

	// Overwriting doesn't add a session
	require.NoError(t, store.Save("session-1", []byte("c")))
	assert.Equal(t, 2, store.Len())

	require.NoError(t, store.Delete("session-1"))
	assert.Equal(t, 1, store.Len())
}

func TestMemoryStore_Concurrent(t *testing.T) {
	store := checkpoint.NewMemoryStore()
	defer store.Close()

	const numGoroutines = 100
	const numOps = 50

	var wg sync.WaitGroup
	wg.Add(numGoroutines)

	for i := 0; i < numGoroutines; i++ {
		go func(id int) {
			defer wg.Done()

			sessionID := "session-" + string(rune('a'+id%26))
			for j := 0; j < numOps; j++ {
				data := []byte("data")

				// Mix of operations
				switch j % 5 {
				case 0, 1:
					_ = store.Save(sessionID, data)
				case 2:
					_, _ = store.Load(sessionID)
				case 3:
					_, _ = store.List()
				case 4:
					_ = store.Delete(sessionID)
				}
			}
		}(i)
	}

	wg.Wait()

	// Should not panic or deadlock
	// Final state doesn't matter, just verifying concurrent safety
}

func TestMemoryStore_InfoMetadata(t *testing.T) {
	store := checkpoint.NewMemoryStore()
	defer store.Close()

	require.NoError(t, store.Save("session-1", []byte("short")))

	infos, err := store.List()
	require.NoError(t, err)
	require.Len(t, infos, 1)

	info := infos[0]
	assert.Equal(t, "session-1", info.SessionID)
	assert.Equal(t, 1, info.Revision)
	assert.Equal(t, int64(5), info.Size) // len("short")
	assert.False(t, info.UpdatedAt.IsZero())
}
