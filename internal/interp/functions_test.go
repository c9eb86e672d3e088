package interp

import (
	"testing"

	mapyruserr "mapyrus/internal/errors"
	"mapyrus/internal/value"
)

func call(t *testing.T, name string, args ...value.Value) value.Value {
	t.Helper()
	s := NewContextStack(nil, nil)
	v, err := callBuiltinFunction(s, name, args)
	if err != nil {
		t.Fatalf("%s(...) unexpected error: %v", name, err)
	}
	return v
}

func TestRoundToNearestInteger(t *testing.T) {
	if v := call(t, "round", value.Number(2.5)); v.AsNumber() != 3 {
		t.Fatalf("round(2.5) = %v, want 3", v.AsNumber())
	}
}

func TestMaxAndMinAreVariadic(t *testing.T) {
	if v := call(t, "max", value.Number(1), value.Number(5), value.Number(3)); v.AsNumber() != 5 {
		t.Fatalf("max(1,5,3) = %v, want 5", v.AsNumber())
	}
	if v := call(t, "min", value.Number(1), value.Number(5), value.Number(3)); v.AsNumber() != 1 {
		t.Fatalf("min(1,5,3) = %v, want 1", v.AsNumber())
	}
}

func TestSubstrIsOneIndexedAndClampsToBounds(t *testing.T) {
	v := call(t, "substr", value.String("hello"), value.Number(2), value.Number(3))
	if v.AsString() != "ell" {
		t.Fatalf("substr(hello,2,3) = %q, want %q", v.AsString(), "ell")
	}
	v = call(t, "substr", value.String("hi"), value.Number(1), value.Number(99))
	if v.AsString() != "hi" {
		t.Fatalf("substr clamped length = %q, want %q", v.AsString(), "hi")
	}
}

func TestModReturnsZeroForZeroDivisor(t *testing.T) {
	if v := call(t, "mod", value.Number(5), value.Number(0)); v.AsNumber() != 0 {
		t.Fatalf("mod(5,0) = %v, want 0", v.AsNumber())
	}
}

func TestDechexAndHex2DecRoundtrip(t *testing.T) {
	hex := call(t, "dechex", value.Number(255))
	if hex.AsString() != "ff" {
		t.Fatalf("dechex(255) = %q, want ff", hex.AsString())
	}
	dec := call(t, "hex2dec", value.String("#ff"))
	if dec.AsNumber() != 255 {
		t.Fatalf("hex2dec(#ff) = %v, want 255", dec.AsNumber())
	}
}

func TestSprintfFormatsMixedArgs(t *testing.T) {
	// sprintf forwards every numeric argument as float64, so %g (not %d)
	// is the well-formed verb for a Number value.
	v := call(t, "sprintf", value.String("%s=%g"), value.String("x"), value.Number(3))
	if v.AsString() != "x=3" {
		t.Fatalf("sprintf(%%s=%%g) = %q, want %q", v.AsString(), "x=3")
	}
}

func TestUndefinedFunctionReturnsInvalidExpression(t *testing.T) {
	s := NewContextStack(nil, nil)
	_, err := callBuiltinFunction(s, "nosuchfunction", nil)
	if !mapyruserr.Is(err, mapyruserr.InvalidExpression) {
		t.Fatalf("expected InvalidExpression, got %v", err)
	}
}

func TestWrongArgCountReturnsWrongParameters(t *testing.T) {
	s := NewContextStack(nil, nil)
	_, err := callBuiltinFunction(s, "pow", []value.Value{value.Number(2)})
	if !mapyruserr.Is(err, mapyruserr.WrongParameters) {
		t.Fatalf("expected WrongParameters, got %v", err)
	}
}
