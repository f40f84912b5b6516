package types

// ---- HAL service plane ----

// HALState is retained at hal/state.
type HALState struct {
	Level  string `json:"level"`  // "idle", "ready", "error", "stopped"
	Status string `json:"status"` // short code
	TS     int64  `json:"ts_ms"`
	Error  string `json:"error,omitempty"`
}

// Link is the link/state reported for a capability.
type Link string

const (
	LinkUp       Link = "up"
	LinkDown     Link = "down"
	LinkDegraded Link = "degraded"
)

type CapabilityStatus struct {
	Link  Link   `json:"link"`
	TS    int64  `json:"ts_ms"`
	Error string `json:"error,omitempty"` // errcode string
}

type ReadNowAck struct {
	OK bool `json:"ok"`
}

type SetRate struct {
	PeriodMS int `json:"period_ms"`
}

type SetRateAck struct {
	OK       bool `json:"ok"`
	PeriodMS int  `json:"period_ms"`
}

type ErrorReply struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}
