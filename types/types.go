package types

// ---- Capability kinds & info ----

type Kind string

const (
	KindDAC Kind = "dac"
)
