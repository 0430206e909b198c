package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadYAMLDefaults(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
units:
  - unit_id: n1
    protocol: modbus-tcp
    connection:
      host: 127.0.0.1
      port: 1502
    enabled: true
`)
	cfg, err := LoadYAML(path)
	if err != nil {
		t.Fatalf("LoadYAML failed: %v", err)
	}
	if cfg.Hub.Listen != ":8090" || cfg.Hub.URL != "ws://localhost:8090/ws" {
		t.Fatalf("hub defaults not applied: %+v", cfg.Hub)
	}
	if cfg.System.Processing.MaxWorkers != 10 {
		t.Fatalf("worker default not applied: %d", cfg.System.Processing.MaxWorkers)
	}
	if cfg.System.CacheTTL != time.Hour {
		t.Fatalf("cache TTL default not applied: %v", cfg.System.CacheTTL)
	}
	u := cfg.Units[0]
	if u.PollInterval != 5*time.Second || u.Timeout != 5*time.Second {
		t.Fatalf("unit defaults not applied: %+v", u)
	}
}

func TestLoadYAMLFull(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
hub:
  listen: ":9000"
  db_path: "custom/fleet.db"
  url: "ws://hub.internal:9000/ws"
thresholds:
  max_humidity: 75
system:
  processing:
    max_workers: 4
  cache_ttl: 10m
units:
  - unit_id: greenhouse-1
    protocol: modbus-tcp
    connection:
      host: 10.0.0.5
      port: 1502
    slave_id: 2
    poll_interval: 30s
    enabled: true
    registers:
      humidity:
        address: 0
        register_type: input
        data_type: float32
        byte_order: CDAB
        scale: 1
      temperature:
        address: 2
        register_type: input
        data_type: float32
      battery:
        address: 4
        register_type: holding
        data_type: uint16
`)
	cfg, err := LoadYAML(path)
	if err != nil {
		t.Fatalf("LoadYAML failed: %v", err)
	}
	if cfg.Hub.Listen != ":9000" {
		t.Fatalf("hub listen not read: %q", cfg.Hub.Listen)
	}
	if cfg.Thresholds == nil || cfg.Thresholds.MaxHumidity == nil || *cfg.Thresholds.MaxHumidity != 75 {
		t.Fatalf("thresholds override not read: %+v", cfg.Thresholds)
	}
	if cfg.Thresholds.MinBattery != nil {
		t.Fatalf("absent threshold field must stay nil")
	}
	u := cfg.Units[0]
	if u.PollInterval != 30*time.Second || u.SlaveID != 2 {
		t.Fatalf("unit not read: %+v", u)
	}
	if u.Registers.Humidity.ByteOrder != "CDAB" || u.Registers.Battery.Address != 4 {
		t.Fatalf("registers not read: %+v", u.Registers)
	}
}

func TestLoadYAMLValidation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		body string
	}{
		{"missing unit_id", `
units:
  - protocol: modbus-tcp
    connection: {host: h, port: 1}
`},
		{"tcp without host", `
units:
  - unit_id: n1
    protocol: modbus-tcp
`},
		{"rtu without serial port", `
units:
  - unit_id: n1
    protocol: modbus-rtu
`},
		{"unknown protocol", `
units:
  - unit_id: n1
    protocol: bacnet
`},
	}
	for _, tc := range cases {
		path := writeConfig(t, tc.body)
		if _, err := LoadYAML(path); err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
	}
}
