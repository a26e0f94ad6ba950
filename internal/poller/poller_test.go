// internal/poller/poller_test.go
package poller

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tamzrod/modbus-tcpclient/internal/batch"
	cfg "github.com/tamzrod/modbus-tcpclient/internal/config"
	"github.com/tamzrod/modbus-tcpclient/internal/fakeplc"
	"github.com/tamzrod/modbus-tcpclient/internal/outcome"
	"github.com/tamzrod/modbus-tcpclient/internal/status"
	"github.com/tamzrod/modbus-tcpclient/internal/value"
)

type fakeClient struct {
	fail  outcome.Kind // non-zero: every batch fails with this kind
	hard  error
	drop  bool // omit the last result
	calls int
}

func (f *fakeClient) BatchRead(specs []batch.AddressSpec) (outcome.Outcome[[]batch.Result], error) {
	f.calls++
	if f.hard != nil {
		return outcome.Outcome[[]batch.Result]{}, f.hard
	}
	if f.fail != outcome.KindNone {
		return outcome.Fail[[]batch.Result](f.fail, "fc=3 station=1 addr=0 count=2: timed out"), nil
	}

	out := make([]batch.Result, 0, len(specs))
	for i, s := range specs {
		out = append(out, batch.Result{
			Address: s.Address, Station: s.Station, Function: s.Function, Type: s.Type,
			Value: uint16(i + 1),
		})
	}
	if f.drop {
		out = out[:len(out)-1]
	}
	return outcome.Ok(out), nil
}

func points() []Point {
	return []Point{
		{Name: "a", Spec: batch.AddressSpec{Address: 0, Type: value.Uint16, Station: 1, Function: 3}},
		{Name: "b", Spec: batch.AddressSpec{Address: 1, Type: value.Uint16, Station: 1, Function: 3}},
	}
}

func newPoller(t *testing.T, c Client) *Poller {
	t.Helper()
	p, err := New(Config{UnitID: "u1", Interval: time.Second, Points: points()}, c, zerolog.Nop())
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}
	return p
}

func TestNew_RejectsIncompleteConfig(t *testing.T) {
	if _, err := New(Config{Interval: time.Second, Points: points()}, &fakeClient{}, zerolog.Nop()); err == nil {
		t.Fatalf("expected error without unit id")
	}
	if _, err := New(Config{UnitID: "u1", Points: points()}, &fakeClient{}, zerolog.Nop()); err == nil {
		t.Fatalf("expected error without interval")
	}
	if _, err := New(Config{UnitID: "u1", Interval: time.Second}, &fakeClient{}, zerolog.Nop()); err == nil {
		t.Fatalf("expected error without points")
	}
}

func TestPollOnce_Success(t *testing.T) {
	p := newPoller(t, &fakeClient{})

	res := p.PollOnce()
	if res.Err != nil {
		t.Fatalf("PollOnce err=%v", res.Err)
	}
	if len(res.Values) != 2 {
		t.Fatalf("expected 2 values, got %d", len(res.Values))
	}
	if res.Values[0].Name != "a" || res.Values[1].Value != uint16(2) {
		t.Fatalf("unexpected values: %+v", res.Values)
	}
}

func TestPollOnce_Failure(t *testing.T) {
	p := newPoller(t, &fakeClient{fail: outcome.KindTimeout})

	res := p.PollOnce()
	if res.Err == nil {
		t.Fatalf("expected error, got nil")
	}
	if len(res.Values) != 0 {
		t.Fatalf("failed cycle must not carry values")
	}
	var ce *CycleError
	if !errors.As(res.Err, &ce) || ce.Kind != outcome.KindTimeout {
		t.Fatalf("expected timeout CycleError, got %v", res.Err)
	}
	if status.ErrorCode(res.Err) != status.CodeTimeout {
		t.Fatalf("status code: got=%#x", status.ErrorCode(res.Err))
	}
}

func TestPollOnce_HardErrorAndMissingPoint(t *testing.T) {
	hard := errors.New("bad spec")
	if res := newPoller(t, &fakeClient{hard: hard}).PollOnce(); !errors.Is(res.Err, hard) {
		t.Fatalf("expected hard error, got %v", res.Err)
	}
	if res := newPoller(t, &fakeClient{drop: true}).PollOnce(); res.Err == nil || len(res.Values) != 0 {
		t.Fatalf("expected all-or-nothing failure, got %+v", res)
	}
}

func TestRun_EmitsUntilCancelled(t *testing.T) {
	fc := &fakeClient{}
	p, err := New(Config{UnitID: "u1", Interval: 10 * time.Millisecond, Points: points()}, fc, zerolog.Nop())
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	out := make(chan PollResult)
	done := make(chan struct{})
	go func() {
		p.Run(ctx, out)
		close(done)
	}()

	for i := 0; i < 3; i++ {
		select {
		case res := <-out:
			if res.UnitID != "u1" || res.Err != nil {
				t.Fatalf("unexpected result: %+v", res)
			}
		case <-time.After(time.Second):
			t.Fatalf("no poll result after 1s")
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Run did not stop on cancel")
	}
}

func TestBuild_PollsFakeDevice(t *testing.T) {
	plc, err := fakeplc.Start()
	if err != nil {
		t.Fatalf("start plc: %v", err)
	}
	defer plc.Close()
	plc.SetRegisters(100, 0x4049, 0x0FDB) // float32 pi, ABCD
	plc.SetCoils(7, true)

	u := cfg.UnitConfig{
		ID:     "boiler",
		Source: cfg.SourceConfig{Host: plc.Addr(), TimeoutMs: 500},
		Points: []cfg.PointConfig{
			{Name: "temp", FC: 3, Station: 1, Address: 100, Type: value.Float32},
			{Name: "run", FC: 1, Station: 1, Address: 7, Type: value.Bit},
		},
		Poll: cfg.PollConfig{IntervalMs: 1000},
	}

	p, closeFn, err := Build(u, zerolog.Nop())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer closeFn()

	res := p.PollOnce()
	if res.Err != nil {
		t.Fatalf("PollOnce: %v", res.Err)
	}
	if v, ok := res.Values[0].Value.(float32); !ok || v < 3.1415 || v > 3.1416 {
		t.Fatalf("temp: %v", res.Values[0].Value)
	}
	if res.Values[1].Value != true {
		t.Fatalf("run: %v", res.Values[1].Value)
	}
}

func TestRun_PollsImmediately(t *testing.T) {
	p, err := New(Config{UnitID: "u1", Interval: time.Hour, Points: points()}, &fakeClient{}, zerolog.Nop())
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	out := make(chan PollResult)
	go p.Run(ctx, out)

	select {
	case <-out:
	case <-time.After(time.Second):
		t.Fatalf("first cycle waited for the interval")
	}
}
