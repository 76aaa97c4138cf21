package gridiron

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridironlabs/gridiron/pkg/gridiron/checkpoint"
	"github.com/gridironlabs/gridiron/pkg/gridiron/llm"
)

func TestSession_PendingToolCalls(t *testing.T) {
	sess := NewSession("s1")
	sess.Append(
		llm.NewUserMessage("question"),
		llm.NewToolCallMessage("", toolCall("a", "one"), toolCall("b", "two")),
		llm.NewToolResultMessage("a", "done"),
	)

	pending := sess.PendingToolCalls()
	require.Len(t, pending, 1)
	assert.Equal(t, "b", pending[0].ID)

	sess.Append(llm.NewToolResultMessage("b", "done"))
	assert.Empty(t, sess.PendingToolCalls())
}

func TestSession_PendingToolCalls_Order(t *testing.T) {
	sess := NewSession("s1")
	sess.Append(llm.NewToolCallMessage("",
		toolCall("c", "one"), toolCall("a", "two"), toolCall("b", "three"),
	))

	pending := sess.PendingToolCalls()
	require.Len(t, pending, 3)
	// Request order, not id order.
	assert.Equal(t, "c", pending[0].ID)
	assert.Equal(t, "a", pending[1].ID)
	assert.Equal(t, "b", pending[2].ID)
}

func TestSession_Clone(t *testing.T) {
	sess := NewSession("s1")
	sess.Append(llm.NewUserMessage("original"))

	clone := sess.Clone()
	clone.Append(llm.NewAssistantMessage("extra"))

	assert.Len(t, sess.Messages, 1)
	assert.Len(t, clone.Messages, 2)
	assert.Equal(t, sess.ID, clone.ID)
}

func TestSnapshot_RoundTrip(t *testing.T) {
	sess := NewSession("s1")
	sess.Append(
		llm.NewUserMessage("question"),
		llm.NewToolCallMessage("thinking", toolCall("a", "stats")),
		llm.NewToolResultMessage("a", "output"),
		llm.NewAssistantMessage("answer"),
	)

	data, err := marshalSnapshot(sess, 3)
	require.NoError(t, err)

	restored, revision, err := unmarshalSnapshot(data)
	require.NoError(t, err)
	assert.Equal(t, 3, revision)
	assert.Equal(t, "s1", restored.ID)
	require.Len(t, restored.Messages, 4)
	assert.Equal(t, sess.Messages, restored.Messages)
}

func TestSnapshot_VersionMismatch(t *testing.T) {
	snap := checkpoint.New("s1", 1, []byte(`{"id":"s1"}`), 0)
	snap.Version = checkpoint.Version + 1
	data, err := snap.Marshal()
	require.NoError(t, err)

	_, _, err = unmarshalSnapshot(data)
	assert.ErrorIs(t, err, ErrSnapshotVersionMismatch)
}

func TestSnapshot_Corrupt(t *testing.T) {
	_, _, err := unmarshalSnapshot([]byte("not json"))
	assert.ErrorIs(t, err, ErrDeserializeState)
}
