package interp

import (
	"bytes"
	"strings"
	"testing"

	mapyruserr "mapyrus/internal/errors"
	"mapyrus/internal/lexer"
	"mapyrus/internal/output"
	"mapyrus/internal/parser"
	"mapyrus/internal/preprocess"
	"mapyrus/internal/value"
)

func parseProgram(t *testing.T, src string) []parser.Stmt {
	t.Helper()
	pp := preprocess.New("test.mapyrus", strings.NewReader(src), nil)
	sc := lexer.New(pp)
	p, err := parser.New(sc)
	if err != nil {
		t.Fatalf("parser.New: %v", err)
	}
	stmts, err := p.Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return stmts
}

// runScript parses and executes src against a fresh Interpreter drawing
// through a Recording encoder, returning both for inspection.
func runScript(t *testing.T, src string) (*Interpreter, *output.Recording) {
	t.Helper()
	rec := output.NewRecording()
	var stdout bytes.Buffer
	it := New(rec, strings.NewReader(""), &stdout)
	stmts := parseProgram(t, src)
	if err := it.Run(stmts); err != nil {
		t.Fatalf("Run: %v", err)
	}
	return it, rec
}

func TestLetAndPrint(t *testing.T) {
	var stdout bytes.Buffer
	it := New(nil, strings.NewReader(""), &stdout)
	stmts := parseProgram(t, "let x = 2 + 3\nprint x\n")
	if err := it.Run(stmts); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := stdout.String(); got != "5\n" {
		t.Fatalf("stdout = %q, want %q", got, "5\n")
	}
}

func TestIfElifElse(t *testing.T) {
	var stdout bytes.Buffer
	it := New(nil, strings.NewReader(""), &stdout)
	src := `
let x = 2
if x = 1 then
    print "one"
elif x = 2 then
    print "two"
else
    print "other"
endif
`
	stmts := parseProgram(t, src)
	if err := it.Run(stmts); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := stdout.String(); got != "two\n" {
		t.Fatalf("stdout = %q, want %q", got, "two\n")
	}
}

func TestWhileLoop(t *testing.T) {
	var stdout bytes.Buffer
	it := New(nil, strings.NewReader(""), &stdout)
	src := `
let i = 0
while i < 3 do
    print i
    let i = i + 1
done
`
	stmts := parseProgram(t, src)
	if err := it.Run(stmts); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := stdout.String(); got != "0\n1\n2\n" {
		t.Fatalf("stdout = %q, want %q", got, "0\n1\n2\n")
	}
}

func TestRepeatRoundsCountToNearestInteger(t *testing.T) {
	var stdout bytes.Buffer
	it := New(nil, strings.NewReader(""), &stdout)
	src := "repeat 2.6 do\n    print \"x\"\ndone\n"
	stmts := parseProgram(t, src)
	if err := it.Run(stmts); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := stdout.String(); got != "x\nx\nx\n" {
		t.Fatalf("stdout = %q, want 3 lines %q", got, "x\nx\nx\n")
	}
}

func TestReturnUnwindsToTopLevelWithoutError(t *testing.T) {
	var stdout bytes.Buffer
	it := New(nil, strings.NewReader(""), &stdout)
	stmts := parseProgram(t, "print \"before\"\nreturn\nprint \"after\"\n")
	if err := it.Run(stmts); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := stdout.String(); got != "before\n" {
		t.Fatalf("stdout = %q, want %q (statements after return must not run)", got, "before\n")
	}
}

func TestCallInvokesBlockWithArguments(t *testing.T) {
	var stdout bytes.Buffer
	it := New(nil, strings.NewReader(""), &stdout)
	src := `
begin greet(name)
    print "hello " . name
end
call greet("world")
`
	stmts := parseProgram(t, src)
	if err := it.Run(stmts); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := stdout.String(); got != "hello world\n" {
		t.Fatalf("stdout = %q, want %q", got, "hello world\n")
	}
}

func TestCallWrongArgCountFails(t *testing.T) {
	var stdout bytes.Buffer
	it := New(nil, strings.NewReader(""), &stdout)
	src := "begin greet(name)\nend\ncall greet()\n"
	stmts := parseProgram(t, src)
	err := it.Run(stmts)
	if !mapyruserr.Is(err, mapyruserr.WrongParameters) {
		t.Fatalf("expected WrongParameters, got %v", err)
	}
}

func TestUndefinedProcedureFails(t *testing.T) {
	var stdout bytes.Buffer
	it := New(nil, strings.NewReader(""), &stdout)
	stmts := parseProgram(t, "call nosuch()\n")
	err := it.Run(stmts)
	if !mapyruserr.Is(err, mapyruserr.UndefinedProc) {
		t.Fatalf("expected UndefinedProc, got %v", err)
	}
}

// mutateAndReturnExpr puts an extra key into the wrapped map every time
// it is evaluated and evaluates to that key, standing in for a procedure
// call with a side effect: this language's grammar has no map-index
// assignment syntax, so a hand-built Expr node is the only way to give a
// for-loop body a mutation to make.
type mutateAndReturnExpr struct {
	m *value.Map
}

func (e *mutateAndReturnExpr) Eval(parser.Env) (value.Value, error) {
	e.m.Put("c", value.Number(99))
	return value.String("c"), nil
}

func TestForLoopSnapshotsMapKeysBeforeMutation(t *testing.T) {
	// The loop body below adds a key named "c" to the map on every
	// iteration. If execFor read keys lazily instead of snapshotting them
	// up front, the newly added "c" would itself be visited as an extra
	// iteration; it must instead only ever see the two keys present when
	// it started.
	var stdout bytes.Buffer
	it := New(nil, strings.NewReader(""), &stdout)

	m := value.NewMap()
	m.Put("a", value.Number(1))
	m.Put("b", value.Number(2))
	it.stack.DefineVariable("m", value.FromMap(m))

	forStmt := &parser.ForStmt{
		Var:     "k",
		MapExpr: &parser.VariableExpr{Name: "m"},
		Body: []parser.Stmt{
			&parser.CommandStmt{Kind: "print", Args: []parser.Expr{&parser.VariableExpr{Name: "k"}}},
			&parser.CommandStmt{Kind: "print", Args: []parser.Expr{&mutateAndReturnExpr{m: m}}},
		},
	}

	if err := it.Run([]parser.Stmt{forStmt}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got, want := stdout.String(), "a\nc\nb\nc\n"; got != want {
		t.Fatalf("stdout = %q, want %q", got, want)
	}
	if got, want := len(m.KeysInsertionOrder()), 3; got != want {
		t.Fatalf("map has %d keys after loop, want %d (a, b, c)", got, want)
	}
}

func TestPerMoveToCallDispatchesOncePerPoint(t *testing.T) {
	src := `
begin mark()
    circle 1
    stroke
end
color "red"
move 0,0
move 10,10
call mark()
`
	_, rec := runScript(t, src)
	count := 0
	for _, c := range rec.Calls {
		if c == "stroke" {
			count++
		}
	}
	if count != 2 {
		t.Fatalf("stroke count = %d, want 2 (one call per moveto point)", count)
	}
}

func TestCallOnceWhenPathHasLineTos(t *testing.T) {
	src := `
begin mark()
    stroke
end
move 0,0
draw 10,10
call mark()
`
	_, rec := runScript(t, src)
	count := 0
	for _, c := range rec.Calls {
		if c == "stroke" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("stroke count = %d, want 1 (path has lineTos, call runs once)", count)
	}
}

func TestInterruptStopsExecution(t *testing.T) {
	var stdout bytes.Buffer
	it := New(nil, strings.NewReader(""), &stdout)
	it.Cancel()
	stmts := parseProgram(t, "print \"x\"\n")
	err := it.Run(stmts)
	if !mapyruserr.Is(err, mapyruserr.Interrupted) {
		t.Fatalf("expected Interrupted, got %v", err)
	}
}

func TestCloneSharesBlocksButNotContextStack(t *testing.T) {
	var stdout bytes.Buffer
	it := New(nil, strings.NewReader(""), &stdout)
	stmts := parseProgram(t, "begin noop()\nend\n")
	if err := it.Run(stmts); err != nil {
		t.Fatalf("Run: %v", err)
	}
	clone := it.Clone(nil)
	if clone.Stack() == it.Stack() {
		t.Fatal("expected Clone to build an independent ContextStack")
	}
	if _, ok := clone.blocks["noop"]; !ok {
		t.Fatal("expected Clone to inherit the block registry")
	}
}

func TestClipOutsideReachesEncoderAsOutsideMode(t *testing.T) {
	src := `
newpage "svg", "-", 100, 100
move 20,20
draw 80,20
draw 80,80
draw 20,80
closepath
clip "outside"
`
	_, rec := runScript(t, src)
	modes := rec.ClipModes()
	if len(modes) != 1 || modes[0] != "outside" {
		t.Fatalf("ClipModes() = %v, want [outside]", modes)
	}
}

func TestClipInsideReachesEncoderAsInsideMode(t *testing.T) {
	src := `
newpage "svg", "-", 100, 100
move 20,20
draw 80,80
clip "inside"
`
	_, rec := runScript(t, src)
	modes := rec.ClipModes()
	if len(modes) != 1 || modes[0] != "inside" {
		t.Fatalf("ClipModes() = %v, want [inside]", modes)
	}
}

func TestLegendBoxGetsStrokedOutlineAfterBlock(t *testing.T) {
	src := `
newpage "svg", "-", 100, 100
begin drawBox()
end
begin drawPoint()
end
move 10,10
key "box", "area", "drawBox"
key "point", "town", "drawPoint"
legend 10
`
	_, rec := runScript(t, src)
	strokes := 0
	for _, c := range rec.Calls {
		if c == "stroke" {
			strokes++
		}
	}
	if strokes != 1 {
		t.Fatalf("stroke count = %d, want 1 (only the box entry gets an outline)", strokes)
	}
}
