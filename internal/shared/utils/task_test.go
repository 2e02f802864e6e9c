package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type samplePayload struct {
	HoldID int64 `json:"hold_id"`
}

func TestMarshalTask_RoundTrip(t *testing.T) {
	task, err := MarshalTask("hold:release", samplePayload{HoldID: 7})
	require.NoError(t, err)
	assert.Equal(t, "hold:release", task.Type())

	var got samplePayload
	require.NoError(t, UnmarshalTask(task, &got))
	assert.Equal(t, int64(7), got.HoldID)
}

func TestMarshalTask_UnmarshalableValue(t *testing.T) {
	_, err := MarshalTask("hold:release", make(chan int))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "hold:release")
}

func TestUnmarshalTask_MalformedPayload(t *testing.T) {
	task, err := MarshalTask("hold:release", samplePayload{HoldID: 7})
	require.NoError(t, err)

	var wrongShape []string
	err = UnmarshalTask(task, &wrongShape)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "hold:release")
}
