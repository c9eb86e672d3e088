// Package interp implements §4.H (ContextStack), §4.I (Interpreter) and
// §4.J (the legend engine): the nested frame stack that holds graphical
// and variable state, the statement-tree walker that executes built-in
// commands against it, and the small entry list the `key`/`legend`
// commands drive. Structured as a globals/locals/call-frame stack with
// explicit push/pop around each call, but without a bytecode loop:
// Mapyrus needs direct Statement-tree execution, not compilation, so
// executeStatement below walks the tree directly (see DESIGN.md).
package interp

import (
	"regexp"

	mapyruserr "mapyrus/internal/errors"
	"mapyrus/internal/mcontext"
	"mapyrus/internal/output"
	"mapyrus/internal/support"
	"mapyrus/internal/value"
)

// ContextStack is the ordered sequence of Context frames described in
// §3/§4.H. Frame 0 is always the bottom (global) frame; it is never
// popped.
type ContextStack struct {
	frames []*mcontext.Context
	regex  *support.RegexCache
	legend *Legend
}

// NewContextStack returns a stack with a single bottom frame drawing
// through out (which may be nil until the script's first `newpage`).
func NewContextStack(out output.Encoder, regex *support.RegexCache) *ContextStack {
	if regex == nil {
		regex = support.NewRegexCache(0)
	}
	return &ContextStack{
		frames: []*mcontext.Context{mcontext.New(out)},
		regex:  regex,
		legend: NewLegend(),
	}
}

// Top returns the innermost (current) frame.
func (s *ContextStack) Top() *mcontext.Context { return s.frames[len(s.frames)-1] }

// Bottom returns the outermost (global) frame.
func (s *ContextStack) Bottom() *mcontext.Context { return s.frames[0] }

// Legend returns the shared legend entry list.
func (s *ContextStack) Legend() *Legend { return s.legend }

// Push clones the current top frame onto the stack, for entering a
// procedure block or an explicit `save`-scoped region. blockName is
// currently unused by the frame itself (kept for naming call frames in
// future diagnostics).
func (s *ContextStack) Push(blockName string) {
	s.frames = append(s.frames, mcontext.Clone(s.Top()))
}

// Pop closes and discards the top frame, applying the attribute-restore
// discipline (§4.G) against the frame beneath it. The bottom frame is
// never popped.
func (s *ContextStack) Pop() {
	n := len(s.frames)
	if n <= 1 {
		return
	}
	top := s.frames[n-1]
	parent := s.frames[n-2]
	top.Close(parent)
	s.frames = s.frames[:n-1]
}

// SaveState/RestoreState are the coarse push/pop pair used around
// procedure calls and nested legend drawing (§4.H); they are plain
// aliases for Push/Pop with no block name, kept as distinct names so
// call sites read using the same vocabulary as the language itself.
func (s *ContextStack) SaveState() { s.Push("") }
func (s *ContextStack) RestoreState() { s.Pop() }

// Depth reports the number of frames currently on the stack (1 = only
// the bottom/global frame).
func (s *ContextStack) Depth() int { return len(s.frames) }

// DefineVariable implements `let`: writes always go to the top frame.
func (s *ContextStack) DefineVariable(name string, v value.Value) {
	s.Top().DefineVariable(name, v)
}

// SetLocalScope implements `local NAME, ...`: declares name local to the
// top frame, hiding any value held by frames beneath it even before a
// value is assigned.
func (s *ContextStack) SetLocalScope(name string) {
	s.Top().SetLocalScope(name)
}

// GetVariableValue implements the read-side scoping rule from §3: walk
// from the top frame down, returning the first frame's value for name;
// a frame that declared name local without (yet) holding a value blocks
// the walk from continuing into frames beneath it.
func (s *ContextStack) GetVariableValue(name string) (value.Value, bool) {
	for i := len(s.frames) - 1; i >= 0; i-- {
		f := s.frames[i]
		if v, ok := f.LookupLocal(name); ok {
			return v, true
		}
		if f.IsLocalScope(name) {
			return value.Value{}, false
		}
	}
	return value.Value{}, false
}

// LookupVariable implements parser.Env, resolving $-prefixed and plain
// variable names through the scoping rule above.
func (s *ContextStack) LookupVariable(name string) (value.Value, error) {
	if v, ok := s.GetVariableValue(name); ok {
		return v, nil
	}
	return value.Value{}, mapyruserr.Newf(mapyruserr.VariableUndefined, "variable %q is not defined", name)
}

// CompileRegexp implements parser.Env via the shared regex LRU.
func (s *ContextStack) CompileRegexp(pattern string) (*regexp.Regexp, error) {
	return s.regex.Compile(pattern)
}

// CallFunction implements parser.Env; the actual built-in function table
// lives in functions.go so this file stays focused on stack mechanics.
func (s *ContextStack) CallFunction(name string, args []value.Value) (value.Value, error) {
	return callBuiltinFunction(s, name, args)
}

// Close pops every frame above the bottom one, top-down, applying the
// attribute-restore discipline at each step; the bottom frame stays. No
// dataset or output handle is closed here.
func (s *ContextStack) Close() {
	for len(s.frames) > 1 {
		s.Pop()
	}
}
