package checkpoint_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridironlabs/gridiron/pkg/gridiron/checkpoint"
)

func TestSnapshot_New(t *testing.T) {
	state := []byte(`{"id": "session-1", "messages": []}`)
	snap := checkpoint.New("session-1", 3, state, 4)

	assert.Equal(t, checkpoint.Version, snap.Version)
	assert.Equal(t, "session-1", snap.SessionID)
	assert.Equal(t, 3, snap.Revision)
	assert.Equal(t, json.RawMessage(state), snap.State)
	assert.Equal(t, 4, snap.MessageCount)
	assert.False(t, snap.Timestamp.IsZero())
}

func TestSnapshot_MarshalRoundTrip(t *testing.T) {
	state := []byte(`{"id": "session-1", "messages": [{"role": "user", "content": "hi"}]}`)
	snap := checkpoint.New("session-1", 1, state, 1)

	data, err := snap.Marshal()
	require.NoError(t, err)

	restored, err := checkpoint.Unmarshal(data)
	require.NoError(t, err)

	assert.Equal(t, snap.Version, restored.Version)
	assert.Equal(t, snap.SessionID, restored.SessionID)
	assert.Equal(t, snap.Revision, restored.Revision)
	assert.Equal(t, snap.MessageCount, restored.MessageCount)
	assert.JSONEq(t, string(snap.State), string(restored.State))
}

func TestSnapshot_UnmarshalInvalid(t *testing.T) {
	_, err := checkpoint.Unmarshal([]byte("not json"))
	assert.Error(t, err)
}
