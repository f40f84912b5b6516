// services/hal/internal/consts/consts.go
package consts

import "time"

// Top-level topics
const (
	TokConfig     = "config"
	TokHAL        = "hal"
	TokCapability = "capability"
	TokInfo       = "info"
	TokState      = "state"
	TokValue      = "value"
	TokControl    = "control"
)

// Control verbs handled by the service itself
const (
	CtrlReadNow = "read_now"
	CtrlSetRate = "set_rate"
)

// Sampling period bounds for periodic producers.
const (
	MinPeriod   = 200 * time.Millisecond
	MaxPeriod   = time.Hour
	FirstSample = 200 * time.Millisecond
)
