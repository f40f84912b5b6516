package config

// Built-in configurations keyed by device id.

const cfgBench = `{
  "hal": {
    "devices": [
      {
        "id": "dac0",
        "type": "dac80501",
        "params": { "vref_mv": 2500, "gain": "2x", "sample_ms": 1000 },
        "bus_ref": { "type": "spi", "id": "spi0" }
      }
    ]
  }
}`

var embeddedConfigs = map[string][]byte{
	"bench": []byte(cfgBench),
}
