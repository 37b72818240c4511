package model

// PumpState is the persisted pump triple. StartMs is a millisecond timestamp,
// DurationSec is in seconds. The JSON field names match the state file written
// by earlier firmware revisions.
type PumpState struct {
	Running     bool  `json:"running"`
	StartMs     int64 `json:"start"`
	DurationSec int64 `json:"duration"`
}

// PumpStatus is the externally visible pump state.
type PumpStatus struct {
	Running          bool  `json:"running"`
	RemainingSeconds int64 `json:"remaining"`
}
