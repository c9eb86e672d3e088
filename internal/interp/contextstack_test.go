package interp

import (
	"testing"

	"mapyrus/internal/mcontext"
	"mapyrus/internal/output"
	"mapyrus/internal/value"
)

func TestVariableScopingWalksDownToFirstHeldValue(t *testing.T) {
	s := NewContextStack(nil, nil)
	s.DefineVariable("x", value.Number(1))
	s.Push("")
	s.Push("")
	v, err := s.LookupVariable("x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.AsNumber() != 1 {
		t.Fatalf("x = %v, want 1 (inherited from bottom frame)", v.AsNumber())
	}
}

func TestLocalScopeHidesOuterValueEvenUnassigned(t *testing.T) {
	s := NewContextStack(nil, nil)
	s.DefineVariable("x", value.Number(1))
	s.Push("")
	s.SetLocalScope("x")
	if _, err := s.LookupVariable("x"); err == nil {
		t.Fatal("expected undefined variable error: local declaration should block the outer value")
	}
}

func TestLocalScopeStopsAtFirstDeclaringFrame(t *testing.T) {
	s := NewContextStack(nil, nil)
	s.DefineVariable("x", value.Number(1))
	s.Push("")
	s.SetLocalScope("x")
	s.DefineVariable("x", value.Number(2))
	s.Push("")
	v, err := s.LookupVariable("x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.AsNumber() != 2 {
		t.Fatalf("x = %v, want 2", v.AsNumber())
	}
}

func TestPopAppliesChangedBitsToParentAsPending(t *testing.T) {
	rec := output.NewRecording()
	s := NewContextStack(rec, nil)
	s.Top().Flush(mcontext.AttrAll) // clear the fresh frame's initial pending bits

	s.Push("")
	s.Top().SetColor(output.Color{R: 1, A: 1})
	rec.RestoreState() // consume the child's save marker so Pop's restore reports failure
	s.Pop()
	if s.Depth() != 1 {
		t.Fatalf("depth after pop = %d, want 1", s.Depth())
	}
	// The child's color change must be inherited as pending on the parent
	// frame, since RestoreState reported that the prior state was not
	// restored.
	rec.Calls = nil
	s.Top().Flush(mcontext.AttrColor)
	found := false
	for _, c := range rec.Calls {
		if c == "setColor" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected the child's setColor change to propagate to the parent frame, got %v", rec.Calls)
	}
}

func TestPopNeverRemovesBottomFrame(t *testing.T) {
	s := NewContextStack(nil, nil)
	s.Pop()
	if s.Depth() != 1 {
		t.Fatalf("depth = %d, want 1 (bottom frame must survive Pop)", s.Depth())
	}
}

func TestCallFunctionDelegatesToBuiltinTable(t *testing.T) {
	s := NewContextStack(nil, nil)
	v, err := s.CallFunction("abs", []value.Value{value.Number(-4)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.AsNumber() != 4 {
		t.Fatalf("abs(-4) = %v, want 4", v.AsNumber())
	}
}

func TestCompileRegexpUsesSharedCache(t *testing.T) {
	s := NewContextStack(nil, nil)
	re1, err := s.CompileRegexp("a+")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	re2, err := s.CompileRegexp("a+")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if re1 != re2 {
		t.Fatal("expected the regex cache to return the same compiled *Regexp for an identical pattern")
	}
}
