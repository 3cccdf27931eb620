package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimestampsMarshalAsRFC3339(t *testing.T) {
	raw, err := json.Marshal(LifecycleEvent{
		CaskID:    7,
		ToState:   StateBottled,
		Timestamp: time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"timestamp":"2024-06-15T12:00:00Z"`)

	raw, err = json.Marshal(LifecycleEvent{Timestamp: time.Date(2024, 6, 15, 12, 0, 0, 250_000_000, time.UTC)})
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"timestamp":"2024-06-15T12:00:00.25Z"`)
}

func TestLifecycleRequestAcceptsMillisecondISO(t *testing.T) {
	var req LifecycleEventRequest
	require.NoError(t, json.Unmarshal([]byte(`{"caskId":3,"toState":"transfer","timestamp":"2024-06-15T12:00:00.000Z"}`), &req))
	require.NotNil(t, req.Timestamp)
	assert.True(t, req.Timestamp.Equal(time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)))
}
