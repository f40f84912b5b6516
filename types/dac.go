package types

// ---- DAC capability payloads ----

// DACValue is published by Collect.
type DACValue struct {
	Alarm bool  `json:"alarm"`
	TS    int64 `json:"ts_ms"`
}

// Controls

type DACSetLevel struct {
	Level     uint32 `json:"level"`
	Unchecked bool   `json:"unchecked,omitempty"` // mask instead of range check
}

type DACSetVoltage struct {
	MilliVolts int64 `json:"mv"`
}

type DACSetGain struct {
	Gain string `json:"gain"` // "1x" | "2x"
}

type DACSetDivider struct {
	Divider string `json:"divider"` // "full" | "half"
}

type DACSetPower struct {
	Power string `json:"power"` // "on" | "off"
}

// DACConfig mirrors the CONFIG register.
type DACConfig struct {
	Divider string `json:"divider"`
	Power   string `json:"power"`
	Known   bool   `json:"known"`
}

type DACAlarm struct {
	Alarm bool `json:"alarm"`
}

type DACAck struct {
	OK bool `json:"ok"`
}
