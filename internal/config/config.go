package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"fleetwatch/internal/model"
)

// RootConfig mirrors config/config.yaml.
type RootConfig struct {
	Hub        HubConfig              `yaml:"hub"`
	Thresholds *model.ThresholdsPatch `yaml:"thresholds"`
	System     SystemConfig           `yaml:"system"`
	Units      []UnitConfig           `yaml:"units"`
}

type HubConfig struct {
	Listen string `yaml:"listen"`
	DBPath string `yaml:"db_path"`
	URL    string `yaml:"url"`
}

type SystemConfig struct {
	Processing struct {
		MaxWorkers int `yaml:"max_workers"`
	} `yaml:"processing"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

// UnitConfig describes how one sensor unit is polled.
type UnitConfig struct {
	UnitID       string        `yaml:"unit_id"`
	Protocol     string        `yaml:"protocol"` // modbus-tcp | modbus-rtu
	Connection   Connection    `yaml:"connection"`
	SlaveID      uint8         `yaml:"slave_id"`
	PollInterval time.Duration `yaml:"poll_interval"`
	Timeout      time.Duration `yaml:"timeout"`
	RetryCount   int           `yaml:"retry_count"`
	Enabled      bool          `yaml:"enabled"`
	Registers    Registers     `yaml:"registers"`
}

type Connection struct {
	// TCP
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	// RTU
	SerialPort string `yaml:"serial_port"`
	BaudRate   int    `yaml:"baud_rate"`
	DataBits   int    `yaml:"data_bits"`
	StopBits   int    `yaml:"stop_bits"`
	Parity     string `yaml:"parity"`
}

// Registers maps the three telemetry fields onto device registers.
type Registers struct {
	Humidity    Register `yaml:"humidity"`
	Temperature Register `yaml:"temperature"`
	Battery     Register `yaml:"battery"`
}

type Register struct {
	Address      uint16  `yaml:"address"`
	RegisterType string  `yaml:"register_type"` // holding | input
	DataType     string  `yaml:"data_type"`     // uint16 | int16 | uint32 | int32 | float32
	ByteOrder    string  `yaml:"byte_order"`    // ABCD | DCBA | BADC | CDAB
	Scale        float64 `yaml:"scale"`
	Offset       float64 `yaml:"offset"`
}

// LoadYAML reads the config file and applies defaults and validation.
func LoadYAML(path string) (RootConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return RootConfig{}, err
	}
	var cfg RootConfig
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return RootConfig{}, err
	}
	// Defaults
	if cfg.Hub.Listen == "" {
		cfg.Hub.Listen = ":8090"
	}
	if cfg.Hub.DBPath == "" {
		cfg.Hub.DBPath = "data/fleet.db"
	}
	if cfg.Hub.URL == "" {
		cfg.Hub.URL = "ws://localhost:8090/ws"
	}
	if cfg.System.Processing.MaxWorkers <= 0 {
		cfg.System.Processing.MaxWorkers = 10
	}
	if cfg.System.CacheTTL <= 0 {
		cfg.System.CacheTTL = time.Hour
	}
	// Basic validation
	for i := range cfg.Units {
		u := &cfg.Units[i]
		if u.UnitID == "" {
			return RootConfig{}, fmt.Errorf("units[%d]: unit_id is required", i)
		}
		proto := strings.ToLower(strings.TrimSpace(u.Protocol))
		switch proto {
		case "", "modbus-tcp", "tcp":
			if u.Connection.Host == "" || u.Connection.Port <= 0 {
				return RootConfig{}, fmt.Errorf("unit %s: host and port are required for TCP", u.UnitID)
			}
		case "modbus-rtu", "rtu":
			if strings.TrimSpace(u.Connection.SerialPort) == "" {
				return RootConfig{}, fmt.Errorf("unit %s: serial_port is required for RTU", u.UnitID)
			}
		default:
			return RootConfig{}, fmt.Errorf("unit %s: unsupported protocol %q", u.UnitID, u.Protocol)
		}
		if u.PollInterval <= 0 {
			u.PollInterval = 5 * time.Second
		}
		if u.Timeout <= 0 {
			u.Timeout = 5 * time.Second
		}
	}
	return cfg, nil
}
