// internal/outcome/outcome_test.go
package outcome

import (
	"errors"
	"strconv"
	"testing"
)

func TestMap_PreservesDiagnostics(t *testing.T) {
	o := Ok([]byte{0x00, 0x2a}).WithFrames([]byte{0x01, 0x02}, []byte{0x03})

	m := Map(o, func(b []byte) int { return int(b[0])<<8 | int(b[1]) })
	if !m.Success {
		t.Fatalf("expected success")
	}
	if m.Value != 42 {
		t.Fatalf("value mismatch: got=%d want=42", m.Value)
	}
	if m.Request != "0102" || m.Response != "03" {
		t.Fatalf("frames not preserved: req=%q resp=%q", m.Request, m.Response)
	}
}

func TestMap_FailureCarriesZeroValue(t *testing.T) {
	o := Fail[[]byte](KindTimeout, "timed out")

	called := false
	m := Map(o, func([]byte) int { called = true; return 7 })
	if called {
		t.Fatalf("map fn must not run on failure")
	}
	if m.Success || m.Value != 0 || m.Kind != KindTimeout {
		t.Fatalf("unexpected outcome: %+v", m)
	}
	if m.Err() == nil {
		t.Fatalf("expected error from failed outcome")
	}
}

func TestThen_ConversionErrorBecomesProtocolFailure(t *testing.T) {
	o := Ok("x12")

	m := Then(o, func(s string) (int, error) { return strconv.Atoi(s) })
	if m.Success {
		t.Fatalf("expected failure")
	}
	if m.Kind != KindProtocol {
		t.Fatalf("kind mismatch: got=%v want=%v", m.Kind, KindProtocol)
	}
}

func TestAppend_AccumulatesErrors(t *testing.T) {
	o := Fail[int](KindTransport, "send failed")
	o = o.Append(KindConnect, "reconnect failed")

	if o.Kind != KindTransport {
		t.Fatalf("first kind must stick: got=%v", o.Kind)
	}
	if o.Message != "send failed" {
		t.Fatalf("message mismatch: got=%q", o.Message)
	}
	if len(o.Errors) != 2 {
		t.Fatalf("expected 2 errors, got %d", len(o.Errors))
	}
	if got := o.Err().Error(); got != "send failed | reconnect failed" {
		t.Fatalf("joined error mismatch: got=%q", got)
	}
}

func TestAppend_DoesNotAliasSource(t *testing.T) {
	base := Outcome[int]{Errors: make([]string, 1, 4)}
	base.Errors[0] = "a"

	x := base.Append(KindProtocol, "x")
	y := base.Append(KindProtocol, "y")

	if x.Errors[1] != "x" || y.Errors[1] != "y" {
		t.Fatalf("appends aliased: x=%v y=%v", x.Errors, y.Errors)
	}
}

func TestErr_NilOnSuccess(t *testing.T) {
	if err := Ok(1).Err(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := FromError[int](KindConnect, errors.New("refused")).Err()
	if err == nil || err.Error() != "refused" {
		t.Fatalf("unexpected error: %v", err)
	}
}
