// internal/config/config.go
package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tamzrod/modbus-tcpclient/internal/value"
)

type Config struct {
	Replicator ReplicatorConfig `yaml:"replicator"`
}

type ReplicatorConfig struct {
	Units []UnitConfig `yaml:"units"`
}

// ---- UNIT ----

type UnitConfig struct {
	ID      string         `yaml:"id"`
	Source  SourceConfig   `yaml:"source"`
	Points  []PointConfig  `yaml:"points"`
	Targets []TargetConfig `yaml:"targets"`
	Poll    PollConfig     `yaml:"poll"`
}

// ---- SOURCE ----

type SourceConfig struct {
	Host      string          `yaml:"host"`
	Port      int             `yaml:"port"`
	TimeoutMs int             `yaml:"timeout_ms"`
	ByteOrder value.ByteOrder `yaml:"byte_order"`
	AutoClose bool            `yaml:"auto_close"`

	// Device status block (optional, opt-in)
	StatusSlot *uint16 `yaml:"status_slot"`
	DeviceName string  `yaml:"device_name"`
}

// ---- POINTS ----

// PointConfig is one value polled from the source.
type PointConfig struct {
	Name    string         `yaml:"name"`
	FC      uint8          `yaml:"fc"`
	Station uint8          `yaml:"station"`
	Address uint16         `yaml:"address"`
	Type    value.DataType `yaml:"type"`
}

// ---- TARGET ----

type TargetConfig struct {
	ID           uint32         `yaml:"id"`
	Endpoint     string         `yaml:"endpoint"`
	UnitID       uint8          `yaml:"unit_id"`        // data memory
	StatusUnitID *uint8         `yaml:"status_unit_id"` // per-target status memory (optional)
	Offsets      map[int]uint16 `yaml:"offsets"`        // delta map keyed by source fc; missing FC => 0
}

// Offset returns the destination delta for points read with fc.
func (t TargetConfig) Offset(fc uint8) uint16 {
	if t.Offsets == nil {
		return 0
	}
	return t.Offsets[int(fc)]
}

// ---- POLL ----

type PollConfig struct {
	IntervalMs int `yaml:"interval_ms"`
}

// Load reads and decodes a YAML configuration file.
// Unknown keys are rejected. The result is neither validated nor normalized.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(raw)
}

// Parse decodes YAML configuration bytes.
func Parse(raw []byte) (*Config, error) {
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)

	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	return &cfg, nil
}
