package shared

import "fmt"

// Task type names follow the domain:action convention so the worker mux
// can route by prefix.
const (
	TypeReleaseHold      = "hold:release"
	TypeExpireHoldsSweep = "hold:expire_sweep"
)

// Queue names, highest priority first.
const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"
)

// ReleaseHoldTaskID keys release tasks so duplicate dispatches for the
// same hold collapse into one.
func ReleaseHoldTaskID(holdID int64) string {
	return fmt.Sprintf("release_hold_%d", holdID)
}
