// internal/writer/types.go
package writer

import (
	"github.com/tamzrod/modbus-tcpclient/internal/poller"
	"github.com/tamzrod/modbus-tcpclient/internal/value"
)

// TargetEndpoint is one Modbus/TCP target that mirrors a unit's points.
type TargetEndpoint struct {
	TargetID uint32
	Endpoint string
	UnitID   uint8
	Offsets  map[int]uint16 // per-FC offset deltas; missing FC => 0
}

// StatusPlan places a unit's device status block on one target.
type StatusPlan struct {
	Endpoint   string
	UnitID     uint8
	BaseSlot   uint16
	DeviceName string
}

// Plan is the fully-built write plan for one unit.
type Plan struct {
	UnitID  string
	Order   value.ByteOrder // register values are re-encoded in this order
	Targets []TargetEndpoint
	Status  []StatusPlan // empty when the unit did not opt in
}

// Writer writes poll snapshots into targets.
type Writer interface {
	Write(res poller.PollResult) error
}

// EndpointClient is the exact contract the writers use.
type EndpointClient interface {
	WriteCoils(unitID uint8, addr uint16, bits []bool) error
	WriteRegisters(unitID uint8, addr uint16, regs []uint16) error
}
