// internal/writer/writer_test.go
package writer

import (
	"errors"
	"testing"

	"github.com/tamzrod/modbus-tcpclient/internal/batch"
	cfg "github.com/tamzrod/modbus-tcpclient/internal/config"
	"github.com/tamzrod/modbus-tcpclient/internal/frame"
	"github.com/tamzrod/modbus-tcpclient/internal/poller"
	"github.com/tamzrod/modbus-tcpclient/internal/value"
)

// ---- fake endpoint client ----

type fakeEndpointClient struct {
	writes []writeCall
	fail   error

	lastRegs     []uint16
	lastRegsAddr uint16
}

type writeCall struct {
	unitID uint8
	addr   uint16
	coils  bool
	qty    int
	regs   []uint16
	bits   []bool
}

func (f *fakeEndpointClient) WriteCoils(unitID uint8, addr uint16, bits []bool) error {
	if f.fail != nil {
		return f.fail
	}
	f.writes = append(f.writes, writeCall{
		unitID: unitID,
		addr:   addr,
		coils:  true,
		qty:    len(bits),
		bits:   bits,
	})
	return nil
}

func (f *fakeEndpointClient) WriteRegisters(unitID uint8, addr uint16, regs []uint16) error {
	if f.fail != nil {
		return f.fail
	}
	f.writes = append(f.writes, writeCall{
		unitID: unitID,
		addr:   addr,
		qty:    len(regs),
		regs:   regs,
	})
	f.lastRegs = regs
	f.lastRegsAddr = addr
	return nil
}

func val(name string, fc frame.FunctionCode, addr uint16, t value.DataType, v any) poller.Value {
	return poller.Value{
		Name:   name,
		Result: batch.Result{Address: addr, Station: 1, Function: fc, Type: t, Value: v},
	}
}

func newWriter(plan Plan, fake *fakeEndpointClient) Writer {
	return New(plan, map[string]EndpointClient{"ep1": fake})
}

// ---- tests ----

func TestWriter_OffsetMathPerFC(t *testing.T) {
	fake := &fakeEndpointClient{}

	plan := Plan{
		UnitID: "unit-1",
		Targets: []TargetEndpoint{
			{
				TargetID: 1,
				Endpoint: "ep1",
				UnitID:   9,
				Offsets: map[int]uint16{
					1: 10,  // coils
					3: 100, // holding registers
				},
			},
		},
	}

	res := poller.PollResult{
		UnitID: "unit-1",
		Values: []poller.Value{
			val("run", frame.ReadCoils, 5, value.Bit, true),
			val("temp", frame.ReadHoldingRegisters, 2, value.Int16, int16(-3)),
		},
	}

	if err := newWriter(plan, fake).Write(res); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(fake.writes) != 2 {
		t.Fatalf("expected 2 writes, got %d", len(fake.writes))
	}

	// registers sort before coils
	if w := fake.writes[0]; w.coils || w.addr != 102 || w.unitID != 9 || w.regs[0] != 0xFFFD { // 100 + 2
		t.Fatalf("unexpected register write: %+v", w)
	}
	if w := fake.writes[1]; !w.coils || w.addr != 15 || !w.bits[0] { // 10 + 5
		t.Fatalf("unexpected coil write: %+v", w)
	}
}

func TestWriter_DefaultOffsetZero(t *testing.T) {
	fake := &fakeEndpointClient{}
	plan := Plan{Targets: []TargetEndpoint{{TargetID: 1, Endpoint: "ep1"}}}

	res := poller.PollResult{
		Values: []poller.Value{val("x", frame.ReadInputRegisters, 20, value.Uint16, uint16(9))},
	}

	if err := newWriter(plan, fake).Write(res); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if fake.writes[0].addr != 20 {
		t.Fatalf("expected addr 20, got %d", fake.writes[0].addr)
	}
}

func TestWriter_MergesNeighboursAndKeepsByteOrder(t *testing.T) {
	fake := &fakeEndpointClient{}
	plan := Plan{
		Order:   value.CDAB,
		Targets: []TargetEndpoint{{TargetID: 1, Endpoint: "ep1"}},
	}

	res := poller.PollResult{
		Values: []poller.Value{
			val("b", frame.ReadHoldingRegisters, 2, value.Uint32, uint32(0x11223344)),
			val("a", frame.ReadHoldingRegisters, 0, value.Uint16, uint16(0xAAAA)),
			val("gap", frame.ReadHoldingRegisters, 10, value.Uint16, uint16(1)),
			val("c0", frame.ReadCoils, 0, value.Bit, true),
			val("c1", frame.ReadCoils, 1, value.Bit, false),
		},
	}

	if err := newWriter(plan, fake).Write(res); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// [0] alone (1 is a hole), [2..3], [10], coils [0..1]
	if len(fake.writes) != 4 {
		t.Fatalf("expected 4 writes, got %+v", fake.writes)
	}
	w := fake.writes[1]
	if w.addr != 2 || len(w.regs) != 2 || w.regs[0] != 0x3344 || w.regs[1] != 0x1122 {
		t.Fatalf("CDAB uint32 write: %+v", w)
	}
	if c := fake.writes[3]; !c.coils || c.qty != 2 || !c.bits[0] || c.bits[1] {
		t.Fatalf("merged coils: %+v", c)
	}
}

func TestWriter_FailedCycleWritesNothing(t *testing.T) {
	fake := &fakeEndpointClient{}
	plan := Plan{Targets: []TargetEndpoint{{TargetID: 1, Endpoint: "ep1"}}}

	res := poller.PollResult{Err: errors.New("timeout")}
	if err := newWriter(plan, fake).Write(res); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fake.writes) != 0 {
		t.Fatalf("expected no writes, got %d", len(fake.writes))
	}
}

func TestWriter_ReportsClientAndEncodeErrors(t *testing.T) {
	plan := Plan{Targets: []TargetEndpoint{
		{TargetID: 1, Endpoint: "ep1"},
		{TargetID: 2, Endpoint: "missing"},
	}}
	fake := &fakeEndpointClient{fail: errors.New("refused")}

	res := poller.PollResult{Values: []poller.Value{val("x", frame.ReadHoldingRegisters, 0, value.Uint16, uint16(1))}}
	if err := newWriter(plan, fake).Write(res); err == nil {
		t.Fatalf("expected error")
	}

	bad := poller.PollResult{Values: []poller.Value{val("x", frame.ReadHoldingRegisters, 0, value.Uint16, "nope")}}
	if err := newWriter(Plan{Targets: plan.Targets[:1]}, &fakeEndpointClient{}).Write(bad); err == nil {
		t.Fatalf("expected encode error")
	}
}

func TestBuildPlan_StatusPerTarget(t *testing.T) {
	slot := uint16(3)
	sid := uint8(200)
	u := cfg.UnitConfig{
		ID:     "u1",
		Source: cfg.SourceConfig{Host: "h", ByteOrder: value.DCBA, StatusSlot: &slot, DeviceName: "PUMP"},
		Targets: []cfg.TargetConfig{
			{ID: 1, Endpoint: "ep1", UnitID: 1, StatusUnitID: &sid},
			{ID: 2, Endpoint: "ep2", UnitID: 2},
		},
	}

	plan, err := BuildPlan(u)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.Order != value.DCBA || len(plan.Targets) != 2 {
		t.Fatalf("plan: %+v", plan)
	}
	if len(plan.Status) != 1 || plan.Status[0] != (StatusPlan{Endpoint: "ep1", UnitID: 200, BaseSlot: 3, DeviceName: "PUMP"}) {
		t.Fatalf("status plan: %+v", plan.Status)
	}

	if _, err := BuildPlan(cfg.UnitConfig{}); err == nil {
		t.Fatalf("expected error without unit id")
	}
}
