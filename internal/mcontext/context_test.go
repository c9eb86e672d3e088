package mcontext

import (
	"testing"

	"mapyrus/internal/output"
	"mapyrus/internal/value"
)

func TestDefaultsMatchSpec(t *testing.T) {
	c := New(nil)
	if c.stroke.Width != 0.1 {
		t.Fatalf("default stroke width = %v, want 0.1", c.stroke.Width)
	}
	if c.justify != DefaultJustify {
		t.Fatalf("default justify = %v, want LEFT|BOTTOM", c.justify)
	}
	if c.pending != AttrAll {
		t.Fatal("expected all attributes pending on a fresh context")
	}
	if c.changed != 0 {
		t.Fatal("expected no attributes changed on a fresh context")
	}
}

func TestCloneSharesPathByReferenceUntilMutated(t *testing.T) {
	parent := New(nil)
	parent.MutatePath().MoveTo(1, 2)

	child := Clone(parent)
	if child.CurrentPath() != parent.path {
		t.Fatal("expected child to read through to parent's path before mutating")
	}

	child.MutatePath().MoveTo(9, 9)
	if child.CurrentPath() == parent.path {
		t.Fatal("expected child to materialise its own path copy after mutation")
	}
	if parent.path.MoveToCount() != 1 {
		t.Fatal("parent's path must be unaffected by child's mutation")
	}
}

func TestClearPathDetachesWhenNoOwnPath(t *testing.T) {
	parent := New(nil)
	parent.MutatePath().MoveTo(1, 1)
	child := Clone(parent)

	child.ClearPath()
	if child.existingPath != nil {
		t.Fatal("expected clearPath to detach the inherited reference")
	}
	if parent.path.MoveToCount() != 1 {
		t.Fatal("parent path must survive child's clearPath")
	}
}

func TestCloneDoesNotShareVariables(t *testing.T) {
	parent := New(nil)
	parent.DefineVariable("x", value.Number(1))
	child := Clone(parent)
	if _, ok := child.LookupLocal("x"); ok {
		t.Fatal("child must not inherit parent's local variable map")
	}
}

func TestFlushOnlyEmitsNeededAndPendingBits(t *testing.T) {
	rec := output.NewRecording()
	c := New(rec)
	c.pending = AttrColor | AttrFont
	c.Flush(AttrColor)
	if len(rec.Calls) != 1 || rec.Calls[0] != "setColor" {
		t.Fatalf("expected only setColor flushed, got %v", rec.Calls)
	}
	if c.pending&AttrColor != 0 {
		t.Fatal("expected AttrColor cleared from pending after flush")
	}
	if c.pending&AttrFont == 0 {
		t.Fatal("expected AttrFont to remain pending (not requested)")
	}
}

func TestSetWorldsPreservesAspectWithoutDistortion(t *testing.T) {
	c := New(nil)
	c.SetWorlds(Rect{0, 0, 100, 50}, Rect{0, 0, 100, 100}, UnitMetres, false)
	// world is 2:1, page is 1:1: expect world height expanded to 100 to
	// match page aspect, keeping the world's vertical midpoint at 25.
	if c.worldExtents.height() != 100 {
		t.Fatalf("expanded world height = %v, want 100", c.worldExtents.height())
	}
}

func TestWorldScaleMetres(t *testing.T) {
	c := New(nil)
	c.SetWorlds(Rect{0, 0, 1000, 1000}, Rect{0, 0, 100, 100}, UnitMetres, true)
	got := c.WorldScale()
	want := 1000.0 * 1000.0 / 100.0
	if got != want {
		t.Fatalf("worldScale = %v, want %v", got, want)
	}
}
