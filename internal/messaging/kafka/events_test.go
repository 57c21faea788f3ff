package kafka

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncCompletedEvent_JSONShape(t *testing.T) {
	to := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	event := SyncCompletedEvent{
		EventType: EventTypeSyncCompleted,
		PassID:    "pass-1",
		WindowTo:  to,
		Inserted:  7,
		Timestamp: to,
	}

	payload, err := json.Marshal(event)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(payload, &decoded))

	assert.Equal(t, "sync.completed", decoded["event_type"])
	assert.Equal(t, "pass-1", decoded["pass_id"])
	assert.Equal(t, float64(7), decoded["inserted"])

	// Нижняя граница полного прохода не сериализуется.
	_, hasFrom := decoded["window_from"]
	assert.False(t, hasFrom)
}

func TestSyncCompletedEvent_BoundedWindow(t *testing.T) {
	from := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	event := SyncCompletedEvent{
		EventType:  EventTypeSyncCompleted,
		PassID:     "pass-2",
		WindowFrom: &from,
		WindowTo:   from.Add(24 * time.Hour),
	}

	payload, err := json.Marshal(event)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(payload, &decoded))
	assert.Contains(t, decoded, "window_from")
}
