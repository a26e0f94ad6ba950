// internal/config/config_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/tamzrod/modbus-tcpclient/internal/value"
)

const sample = `
replicator:
  units:
    - id: boiler
      source:
        host: 192.168.1.10
        port: 502
        byte_order: CDAB
        status_slot: 2
        device_name: "BOILER-HOUSE-NORTH-01"
      points:
        - { name: temp, fc: 3, station: 1, address: 100, type: float32 }
        - { name: run,  fc: 1, station: 1, address: 0,   type: bit }
      targets:
        - id: 1
          endpoint: 127.0.0.1:1502
          unit_id: 1
          status_unit_id: 100
          offsets: { 3: 1000 }
`

func TestLoad_DecodesAndNormalizes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "replicator.yaml")
	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("validate: %v", err)
	}
	Normalize(cfg)

	u := cfg.Replicator.Units[0]
	if u.Source.ByteOrder != value.CDAB {
		t.Fatalf("byte order: got=%v", u.Source.ByteOrder)
	}
	if u.Points[0].Type != value.Float32 || u.Points[1].Type != value.Bit {
		t.Fatalf("point types: %+v", u.Points)
	}
	if u.Targets[0].Offset(3) != 1000 || u.Targets[0].Offset(1) != 0 {
		t.Fatalf("offsets: %+v", u.Targets[0].Offsets)
	}
	if u.Source.DeviceName != "BOILER-HOUSE-NOR" {
		t.Fatalf("device name not truncated: %q", u.Source.DeviceName)
	}
	if u.Source.TimeoutMs != DefaultTimeoutMs || u.Poll.IntervalMs != DefaultIntervalMs {
		t.Fatalf("defaults not applied: timeout=%d interval=%d", u.Source.TimeoutMs, u.Poll.IntervalMs)
	}
}

func TestParse_RejectsUnknownKeysAndTypes(t *testing.T) {
	if _, err := Parse([]byte("replicator:\n  unitz: []\n")); err == nil {
		t.Fatalf("expected unknown key error")
	}
	bad := "replicator:\n  units:\n    - id: a\n      points:\n        - { fc: 3, address: 0, type: decimal }\n"
	if _, err := Parse([]byte(bad)); err == nil {
		t.Fatalf("expected unknown type error")
	}
	if _, err := Parse([]byte("replicator:\n  units:\n    - id: a\n      source: { byte_order: XYZW }\n")); err == nil {
		t.Fatalf("expected unknown byte order error")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("expected error")
	}
}
