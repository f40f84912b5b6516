package config

import (
	"context"
	"encoding/json"
	"errors"
	"os"

	"dacx0501-go/bus"
)

const configPrefix = "config"

// Lookup resolves the raw JSON document for a device.
type Lookup func(device string) ([]byte, bool)

// Embedded resolves from the built-in documents.
func Embedded(device string) ([]byte, bool) {
	b, ok := embeddedConfigs[device]
	return b, ok
}

// File serves one JSON document from disk regardless of device name.
func File(path string) Lookup {
	return func(string) ([]byte, bool) {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, false
		}
		return b, true
	}
}

// -----------------------------------------------------------------------------
// Config Service
// -----------------------------------------------------------------------------

type Service struct {
	lookup Lookup
}

func New(lookup Lookup) *Service {
	if lookup == nil {
		lookup = Embedded
	}
	return &Service{lookup: lookup}
}

// Publish resolves the device document and publishes each top-level key
// retained on config/<key>.
func (s *Service) Publish(ctx context.Context, conn *bus.Connection, device string) error {
	if device == "" {
		return errors.New("config: missing device id")
	}
	raw, ok := s.lookup(device)
	if !ok || len(raw) == 0 {
		return errors.New("config: no config for device " + device)
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return errors.New("config: document is not a JSON object: " + err.Error())
	}

	for k, v := range m {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		conn.Publish(conn.NewMessage(bus.T(configPrefix, k), v, true))
	}
	return nil
}
