package utils

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// MarshalTask builds an asynq task carrying the JSON-encoded payload.
func MarshalTask(taskType string, payload interface{}) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", taskType, err)
	}
	return asynq.NewTask(taskType, data), nil
}

// UnmarshalTask decodes a task payload into v.
func UnmarshalTask(t *asynq.Task, v interface{}) error {
	if err := json.Unmarshal(t.Payload(), v); err != nil {
		return fmt.Errorf("failed to unmarshal %s payload: %w", t.Type(), err)
	}
	return nil
}
