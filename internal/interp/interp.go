// Package interp: Interpreter (§4.I) executes a parsed Statement tree
// against a ContextStack, in the spirit of a globals/call-frame stack
// with a big per-opcode dispatch and a cheap "clone for concurrent use"
// constructor, but walking the Statement tree directly instead of
// running compiled bytecode, since §4.I describes tree-walking
// execution, not a VM loop.
package interp

import (
	"io"
	"strings"
	"sync/atomic"

	mapyruserr "mapyrus/internal/errors"
	"mapyrus/internal/lexer"
	"mapyrus/internal/output"
	"mapyrus/internal/parser"
	"mapyrus/internal/preprocess"
	"mapyrus/internal/support"
	"mapyrus/internal/value"
)

// Dataset is the minimal surface the Interpreter needs from an open
// dataset handle (§6's Dataset contract); internal/dataset provides the
// concrete drivers, kept out of this package to avoid a dependency from
// the language runtime onto SQL/CSV machinery it otherwise has no need
// to know about.
type Dataset interface {
	Fetch() (Row, error)
	Close() error
	FieldNames() []string
}

// Row is one fetched record: one Value per field, in FieldNames() order.
type Row []value.Value

// DatasetOpener resolves a `dataset "type", "spec", "extras"` command to a
// concrete handle; stdin is forwarded for the "-" spec some
// drivers accept (text tables piped into the interpreter).
type DatasetOpener func(kind, spec, extras string, stdin io.Reader) (Dataset, error)

// returnSignal is the sentinel the Return statement raises; it unwinds
// exactly to the nearest block-call boundary (§4.I: "terminate the
// current block / interpretation session"), where it is converted back
// to a nil error.
type returnSignal struct{}

func (returnSignal) Error() string { return "return" }

// Interpreter holds everything a running script needs beyond its
// ContextStack: the procedure-block registry, I/O streams, dataset
// wiring and a cooperative cancellation flag. Instances are cheap to
// Clone, per §5's "interpreter instances are cheap" model.
type Interpreter struct {
	blocks    map[string]*parser.BlockDefStmt
	stack     *ContextStack
	stdin     io.Reader
	stdout    io.Writer
	opener    DatasetOpener
	cancelled int32
	regex     *support.RegexCache
}

// New creates an Interpreter with a fresh ContextStack drawing through
// out, an empty block registry, and no dataset wiring (call
// SetDatasetOpener to add it).
func New(out output.Encoder, stdin io.Reader, stdout io.Writer) *Interpreter {
	regex := support.NewRegexCache(0)
	return &Interpreter{
		blocks: make(map[string]*parser.BlockDefStmt),
		stack:  NewContextStack(out, regex),
		stdin:  stdin,
		stdout: stdout,
		regex:  regex,
	}
}

// SetDatasetOpener wires the Dataset driver dispatch used by the
// `dataset` command.
func (it *Interpreter) SetDatasetOpener(o DatasetOpener) { it.opener = o }

// SetStdout redirects `print` output, used by the HTTP front end
// to capture a per-request clone's output into a response buffer instead
// of the process's shared stdout.
func (it *Interpreter) SetStdout(w io.Writer) { it.stdout = w }

// RunSource reads a whole program from pp, parses it, and runs it as one
// top-level interpretation session — the CLI file-mode and HTTP
// front-end entry point into an Interpreter.
func (it *Interpreter) RunSource(pp *preprocess.Preprocessor) error {
	sc := lexer.New(pp)
	p, err := parser.New(sc)
	if err != nil {
		return err
	}
	stmts, err := p.Parse()
	if err != nil {
		return err
	}
	return it.Run(stmts)
}

// Stack exposes the ContextStack, mainly for tests and the HTTP
// front-end's `$Mapyrus.http.*` variable injection.
func (it *Interpreter) Stack() *ContextStack { return it.stack }

// Clone returns an independent Interpreter that starts from a shallow
// copy of this one's block registry (so two concurrent clones can each
// define further blocks without racing on a shared map) and a fresh
// ContextStack drawing through out, per §5's concurrency model:
// clones share only the immutable template content and process-wide
// caches (regex LRU, sinkhole buffer — the latter lives in pathengine).
func (it *Interpreter) Clone(out output.Encoder) *Interpreter {
	blocks := make(map[string]*parser.BlockDefStmt, len(it.blocks))
	for k, v := range it.blocks {
		blocks[k] = v
	}
	return &Interpreter{
		blocks: blocks,
		stack:  NewContextStack(out, it.regex),
		stdin:  it.stdin,
		stdout: it.stdout,
		opener: it.opener,
		regex:  it.regex,
	}
}

// Cancel sets the cooperative cancellation flag; the next statement
// dispatch will fail with Interrupted.
func (it *Interpreter) Cancel() { atomic.StoreInt32(&it.cancelled, 1) }

func (it *Interpreter) interrupted() bool { return atomic.LoadInt32(&it.cancelled) != 0 }

// Close runs the §5 cleanup: it closes the bottom frame's dataset, if
// any, then pops every frame above the bottom one. The output encoder is
// not closed here.
func (it *Interpreter) Close() {
	if ds, ok := it.stack.Bottom().Dataset().(Dataset); ok && ds != nil {
		ds.Close()
	}
	it.stack.Close()
}

// Run executes stmts as a full top-level interpretation session: a
// Return reaching the top unwinds the whole session rather than erroring.
func (it *Interpreter) Run(stmts []parser.Stmt) error {
	err := it.executeStatements(stmts)
	if _, ok := err.(returnSignal); ok {
		return nil
	}
	return err
}

func (it *Interpreter) executeStatements(stmts []parser.Stmt) error {
	for _, st := range stmts {
		if err := it.executeStatement(st); err != nil {
			return err
		}
	}
	return nil
}

func (it *Interpreter) executeStatement(st parser.Stmt) error {
	if it.interrupted() {
		return mapyruserr.New(mapyruserr.Interrupted, "interpretation was cancelled")
	}
	file, line := st.Pos()

	var err error
	switch s := st.(type) {
	case *parser.BlockDefStmt:
		it.blocks[strings.ToLower(s.Name)] = s
	case *parser.IfStmt:
		err = it.execIf(s)
	case *parser.WhileStmt:
		err = it.execWhile(s)
	case *parser.RepeatStmt:
		err = it.execRepeat(s)
	case *parser.ForStmt:
		err = it.execFor(s)
	case *parser.ReturnStmt:
		err = returnSignal{}
	case *parser.CallStmt:
		err = it.execCall(s)
	case *parser.CommandStmt:
		err = it.execCommand(s)
	default:
		err = mapyruserr.Newf(mapyruserr.InvalidKeyword, "unhandled statement type %T", st)
	}

	if err == nil {
		return nil
	}
	if _, ok := err.(returnSignal); ok {
		return err
	}
	return mapyruserr.Located(file, line, err)
}

func (it *Interpreter) eval(e parser.Expr) (value.Value, error) {
	return e.Eval(it.stack)
}

func (it *Interpreter) evalArgs(exprs []parser.Expr) ([]value.Value, error) {
	out := make([]value.Value, len(exprs))
	for i, e := range exprs {
		v, err := it.eval(e)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (it *Interpreter) execIf(s *parser.IfStmt) error {
	cond, err := it.eval(s.Cond)
	if err != nil {
		return err
	}
	if cond.IsTrue() {
		return it.executeStatements(s.Then)
	}
	return it.executeStatements(s.Else)
}

func (it *Interpreter) execWhile(s *parser.WhileStmt) error {
	for {
		if it.interrupted() {
			return mapyruserr.New(mapyruserr.Interrupted, "interpretation was cancelled")
		}
		cond, err := it.eval(s.Cond)
		if err != nil {
			return err
		}
		if !cond.IsTrue() {
			return nil
		}
		if err := it.executeStatements(s.Body); err != nil {
			return err
		}
	}
}

func (it *Interpreter) execRepeat(s *parser.RepeatStmt) error {
	countVal, err := it.eval(s.Count)
	if err != nil {
		return err
	}
	n := int(countVal.AsNumber() + 0.5) // round to nearest, per "within epsilon of an integer"
	for i := 0; i < n; i++ {
		if it.interrupted() {
			return mapyruserr.New(mapyruserr.Interrupted, "interpretation was cancelled")
		}
		if err := it.executeStatements(s.Body); err != nil {
			return err
		}
	}
	return nil
}

func (it *Interpreter) execFor(s *parser.ForStmt) error {
	mapVal, err := it.eval(s.MapExpr)
	if err != nil {
		return err
	}
	m := mapVal.AsMap()
	if m == nil {
		return mapyruserr.New(mapyruserr.WrongTypes, "for loop requires a map expression")
	}
	// Snapshot insertion-order keys up front: mutations made to the map
	// during the loop body must not affect this iteration (§8's
	// for-loop-snapshot property).
	keys := m.KeysInsertionOrder()
	for _, k := range keys {
		if it.interrupted() {
			return mapyruserr.New(mapyruserr.Interrupted, "interpretation was cancelled")
		}
		it.stack.DefineVariable(s.Var, value.String(k))
		if err := it.executeStatements(s.Body); err != nil {
			return err
		}
	}
	return nil
}

// execCall implements Call dispatch including the "call per moveto"
// polymorphism: if the current path is a set of isolated moveTo points
// (no lineTo vertices yet), the block runs once per point, translated
// and rotated to it; otherwise it runs once.
func (it *Interpreter) execCall(s *parser.CallStmt) error {
	bd, ok := it.blocks[strings.ToLower(s.Name)]
	if !ok {
		return mapyruserr.Newf(mapyruserr.UndefinedProc, "procedure %q is not defined", s.Name)
	}
	args, err := it.evalArgs(s.Args)
	if err != nil {
		return err
	}
	if len(args) != len(bd.Params) {
		return mapyruserr.Newf(mapyruserr.WrongParameters, "procedure %q expects %d arguments, got %d", s.Name, len(bd.Params), len(args))
	}

	path := it.stack.Top().CurrentPath()
	if path != nil && path.MoveToCount() > 0 && path.LineToCount() == 0 {
		movetos := path.MoveTos()
		rotations := path.MoveToRotations()
		for i, pt := range movetos {
			it.stack.SaveState()
			top := it.stack.Top()
			top.Translate(pt.X, pt.Y)
			top.Rotate(rotations[i])
			top.ClearPath()
			top.MutatePath().MoveTo(pt.X, pt.Y)
			callErr := it.invokeBlock(bd, args)
			it.stack.RestoreState()
			if callErr != nil {
				return callErr
			}
		}
		return nil
	}

	it.stack.SaveState()
	callErr := it.invokeBlock(bd, args)
	it.stack.RestoreState()
	return callErr
}

func (it *Interpreter) invokeBlock(bd *parser.BlockDefStmt, args []value.Value) error {
	top := it.stack.Top()
	for i, p := range bd.Params {
		top.SetLocalScope(p)
		if i < len(args) {
			top.DefineVariable(p, args[i])
		}
	}
	err := it.executeStatements(bd.Body)
	if _, ok := err.(returnSignal); ok {
		return nil
	}
	return err
}
