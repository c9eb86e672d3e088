// internal/parser/parser.go
//
// Recursive-descent parser over the token stream from internal/lexer,
// building the Expr/Stmt trees above: a Parser struct walking a token
// cursor with match/check/advance helpers, reading tokens lazily from a
// lexer.Scanner instead of a pre-scanned slice, since `include` can
// splice new source mid-file.
package parser

import (
	"strconv"
	"strings"

	mapyruserr "mapyrus/internal/errors"
	"mapyrus/internal/lexer"
	"mapyrus/internal/value"
)

// Parser turns a token stream into a slice of top-level Stmt.
type Parser struct {
	scan      *lexer.Scanner
	cur       lexer.Token
	inProcDef bool
}

// New creates a Parser reading tokens from scan.
func New(scan *lexer.Scanner) (*Parser, error) {
	p := &Parser{scan: scan}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Parser) advance() error {
	t, err := p.scan.Next()
	if err != nil {
		return err
	}
	p.cur = t
	return nil
}

func (p *Parser) at(t lexer.TokenType) bool { return p.cur.Type == t }

func (p *Parser) expect(t lexer.TokenType) (lexer.Token, error) {
	if !p.at(t) {
		return lexer.Token{}, mapyruserr.Newf(mapyruserr.ExpectedToken, "expected %s but found %q", t, p.cur.Lexeme)
	}
	tok := p.cur
	return tok, p.advance()
}

func (p *Parser) skipNewlines() error {
	for p.at(lexer.TokenNewline) {
		if err := p.advance(); err != nil {
			return err
		}
	}
	return nil
}

// Parse reads statements until EOF.
func (p *Parser) Parse() ([]Stmt, error) {
	return p.statementsUntil()
}

// statementsUntil parses statements until EOF or one of the given block
// terminator/separator keywords is seen (the keyword itself is left
// unconsumed for the caller to match).
func (p *Parser) statementsUntil(terminators ...lexer.TokenType) ([]Stmt, error) {
	var out []Stmt
	for {
		if err := p.skipNewlines(); err != nil {
			return nil, err
		}
		if p.at(lexer.TokenEOF) {
			if len(terminators) > 0 {
				return nil, mapyruserr.New(mapyruserr.UnexpectedEOF, "unexpected end of file inside a block")
			}
			return out, nil
		}
		for _, t := range terminators {
			if p.at(t) {
				return out, nil
			}
		}
		st, err := p.statement()
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
}

func (p *Parser) statement() (Stmt, error) {
	file, line := p.cur.File, p.cur.Line
	here := pos{File: file, Line: line}

	switch p.cur.Type {
	case lexer.TokenBegin:
		return p.blockDef(here)
	case lexer.TokenIf:
		return p.ifStmt(here)
	case lexer.TokenWhile:
		return p.whileStmt(here)
	case lexer.TokenRepeat:
		return p.repeatStmt(here)
	case lexer.TokenFor:
		return p.forStmt(here)
	case lexer.TokenReturn:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &ReturnStmt{pos: here}, nil
	case lexer.TokenIdent:
		return p.commandOrCall(here)
	default:
		return nil, mapyruserr.Newf(mapyruserr.InvalidKeyword, "%s:%d: unexpected token %q", file, line, p.cur.Lexeme)
	}
}

func (p *Parser) commandOrCall(here pos) (Stmt, error) {
	name := p.cur.Lexeme
	lower := strings.ToLower(name)
	if err := p.advance(); err != nil {
		return nil, err
	}
	switch lower {
	case "let":
		return p.letStmt(here)
	case "local":
		return p.localStmt(here)
	case "call":
		return p.callStmt(here)
	default:
		args, err := p.exprList()
		if err != nil {
			return nil, err
		}
		return &CommandStmt{pos: here, Kind: lower, Args: args}, nil
	}
}

// letStmt parses `let NAME = EXPR`: the "=" syntax doesn't fit the plain
// comma-separated expression-list shape every other command uses, so it
// gets a dedicated rule, with Args = [nameLiteral, valueExpr].
func (p *Parser) letStmt(here pos) (Stmt, error) {
	nameTok, err := p.expect(lexer.TokenIdent)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.TokenEq); err != nil {
		return nil, err
	}
	valExpr, err := p.expr()
	if err != nil {
		return nil, err
	}
	return &CommandStmt{
		pos:  here,
		Kind: "let",
		Args: []Expr{&Literal{Value: value.String(nameTok.Lexeme)}, valExpr},
	}, nil
}

// localStmt parses `local NAME, NAME, ...`.
func (p *Parser) localStmt(here pos) (Stmt, error) {
	var args []Expr
	for {
		nameTok, err := p.expect(lexer.TokenIdent)
		if err != nil {
			return nil, err
		}
		args = append(args, &Literal{Value: value.String(nameTok.Lexeme)})
		if p.at(lexer.TokenComma) {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	return &CommandStmt{pos: here, Kind: "local", Args: args}, nil
}

// callStmt parses `call NAME(arg1, arg2, ...)` or `call NAME`.
func (p *Parser) callStmt(here pos) (Stmt, error) {
	nameTok, err := p.expect(lexer.TokenIdent)
	if err != nil {
		return nil, err
	}
	var args []Expr
	if p.at(lexer.TokenLParen) {
		if err := p.advance(); err != nil {
			return nil, err
		}
		if !p.at(lexer.TokenRParen) {
			args, err = p.argListUntilParen()
			if err != nil {
				return nil, err
			}
		}
		if _, err := p.expect(lexer.TokenRParen); err != nil {
			return nil, err
		}
	}
	return &CallStmt{pos: here, Name: nameTok.Lexeme, Args: args}, nil
}

func (p *Parser) argListUntilParen() ([]Expr, error) {
	var args []Expr
	for {
		e, err := p.expr()
		if err != nil {
			return nil, err
		}
		args = append(args, e)
		if p.at(lexer.TokenComma) {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		return args, nil
	}
}

// exprList parses a comma-separated expression list terminated by a
// newline or EOF, the generic argument shape used by every command
// other than `let`/`local`.
func (p *Parser) exprList() ([]Expr, error) {
	if p.at(lexer.TokenNewline) || p.at(lexer.TokenEOF) {
		return nil, nil
	}
	var args []Expr
	for {
		e, err := p.expr()
		if err != nil {
			return nil, err
		}
		args = append(args, e)
		if p.at(lexer.TokenComma) {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		return args, nil
	}
}

func (p *Parser) blockDef(here pos) (Stmt, error) {
	if p.inProcDef {
		return nil, mapyruserr.New(mapyruserr.NestedProc, "procedure block definitions do not nest")
	}
	if err := p.advance(); err != nil { // consume 'begin'
		return nil, err
	}
	nameTok, err := p.expect(lexer.TokenIdent)
	if err != nil {
		return nil, err
	}
	var params []string
	if p.at(lexer.TokenLParen) {
		if err := p.advance(); err != nil {
			return nil, err
		}
		for !p.at(lexer.TokenRParen) {
			pt, err := p.expect(lexer.TokenIdent)
			if err != nil {
				return nil, err
			}
			params = append(params, pt.Lexeme)
			if p.at(lexer.TokenComma) {
				if err := p.advance(); err != nil {
					return nil, err
				}
			}
		}
		if _, err := p.expect(lexer.TokenRParen); err != nil {
			return nil, err
		}
	}
	p.inProcDef = true
	body, err := p.statementsUntil(lexer.TokenEnd)
	p.inProcDef = false
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.TokenEnd); err != nil {
		return nil, err
	}
	return &BlockDefStmt{pos: here, Name: nameTok.Lexeme, Params: params, Body: body}, nil
}

func (p *Parser) ifStmt(here pos) (Stmt, error) {
	if err := p.advance(); err != nil { // consume 'if'
		return nil, err
	}
	cond, err := p.expr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.TokenThen); err != nil {
		return nil, err
	}
	thenBody, err := p.statementsUntil(lexer.TokenElif, lexer.TokenElse, lexer.TokenEndif)
	if err != nil {
		return nil, err
	}
	var elseBody []Stmt
	switch {
	case p.at(lexer.TokenElif):
		elifPos := pos{File: p.cur.File, Line: p.cur.Line}
		nested, err := p.elifChain(elifPos)
		if err != nil {
			return nil, err
		}
		elseBody = []Stmt{nested}
	case p.at(lexer.TokenElse):
		if err := p.advance(); err != nil {
			return nil, err
		}
		elseBody, err = p.statementsUntil(lexer.TokenEndif)
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(lexer.TokenEndif); err != nil {
		return nil, err
	}
	return &IfStmt{pos: here, Cond: cond, Then: thenBody, Else: elseBody}, nil
}

// elifChain parses one `elif COND then ...` arm and recurses for any
// further elif/else, without consuming the final `endif` (the outermost
// ifStmt call does that).
func (p *Parser) elifChain(here pos) (Stmt, error) {
	if err := p.advance(); err != nil { // consume 'elif'
		return nil, err
	}
	cond, err := p.expr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.TokenThen); err != nil {
		return nil, err
	}
	thenBody, err := p.statementsUntil(lexer.TokenElif, lexer.TokenElse, lexer.TokenEndif)
	if err != nil {
		return nil, err
	}
	var elseBody []Stmt
	switch {
	case p.at(lexer.TokenElif):
		nested, err := p.elifChain(pos{File: p.cur.File, Line: p.cur.Line})
		if err != nil {
			return nil, err
		}
		elseBody = []Stmt{nested}
	case p.at(lexer.TokenElse):
		if err := p.advance(); err != nil {
			return nil, err
		}
		elseBody, err = p.statementsUntil(lexer.TokenEndif)
		if err != nil {
			return nil, err
		}
	}
	return &IfStmt{pos: here, Cond: cond, Then: thenBody, Else: elseBody}, nil
}

func (p *Parser) whileStmt(here pos) (Stmt, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}
	cond, err := p.expr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.TokenDo); err != nil {
		return nil, err
	}
	body, err := p.statementsUntil(lexer.TokenDone)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.TokenDone); err != nil {
		return nil, err
	}
	return &WhileStmt{pos: here, Cond: cond, Body: body}, nil
}

func (p *Parser) repeatStmt(here pos) (Stmt, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}
	count, err := p.expr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.TokenDo); err != nil {
		return nil, err
	}
	body, err := p.statementsUntil(lexer.TokenDone)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.TokenDone); err != nil {
		return nil, err
	}
	return &RepeatStmt{pos: here, Count: count, Body: body}, nil
}

func (p *Parser) forStmt(here pos) (Stmt, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}
	varTok, err := p.expect(lexer.TokenIdent)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.TokenIn); err != nil {
		return nil, err
	}
	mapExpr, err := p.expr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.TokenDo); err != nil {
		return nil, err
	}
	body, err := p.statementsUntil(lexer.TokenDone)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.TokenDone); err != nil {
		return nil, err
	}
	return &ForStmt{pos: here, Var: varTok.Lexeme, MapExpr: mapExpr, Body: body}, nil
}

// ---- expression grammar, lowest to highest precedence ----

func (p *Parser) expr() (Expr, error) { return p.orExpr() }

func (p *Parser) orExpr() (Expr, error) {
	left, err := p.andExpr()
	if err != nil {
		return nil, err
	}
	for p.at(lexer.TokenOr) {
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.andExpr()
		if err != nil {
			return nil, err
		}
		left = &LogicalExpr{Left: left, Operator: "or", Right: right}
	}
	return left, nil
}

func (p *Parser) andExpr() (Expr, error) {
	left, err := p.comparisonExpr()
	if err != nil {
		return nil, err
	}
	for p.at(lexer.TokenAnd) {
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.comparisonExpr()
		if err != nil {
			return nil, err
		}
		left = &LogicalExpr{Left: left, Operator: "and", Right: right}
	}
	return left, nil
}

var comparisonOps = map[lexer.TokenType]string{
	lexer.TokenEq:    "=",
	lexer.TokenNe:    "!=",
	lexer.TokenLt:    "<",
	lexer.TokenLe:    "<=",
	lexer.TokenGt:    ">",
	lexer.TokenGe:    ">=",
	lexer.TokenTilde: "~",
}

func (p *Parser) comparisonExpr() (Expr, error) {
	left, err := p.additiveExpr()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := comparisonOps[p.cur.Type]
		if !ok {
			return left, nil
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.additiveExpr()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Left: left, Operator: op, Right: right}
	}
}

func (p *Parser) additiveExpr() (Expr, error) {
	left, err := p.multiplicativeExpr()
	if err != nil {
		return nil, err
	}
	for {
		var op string
		switch p.cur.Type {
		case lexer.TokenPlus:
			op = "+"
		case lexer.TokenMinus:
			op = "-"
		case lexer.TokenDot:
			op = "."
		default:
			return left, nil
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.multiplicativeExpr()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Left: left, Operator: op, Right: right}
	}
}

func (p *Parser) multiplicativeExpr() (Expr, error) {
	left, err := p.unaryExpr()
	if err != nil {
		return nil, err
	}
	for {
		var op string
		switch p.cur.Type {
		case lexer.TokenStar:
			op = "*"
		case lexer.TokenSlash:
			op = "/"
		default:
			return left, nil
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.unaryExpr()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Left: left, Operator: op, Right: right}
	}
}

func (p *Parser) unaryExpr() (Expr, error) {
	if p.at(lexer.TokenPlus) || p.at(lexer.TokenMinus) {
		op := "+"
		if p.at(lexer.TokenMinus) {
			op = "-"
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		operand, err := p.unaryExpr()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Operator: op, Operand: operand}, nil
	}
	return p.primaryExpr()
}

func (p *Parser) primaryExpr() (Expr, error) {
	tok := p.cur
	switch tok.Type {
	case lexer.TokenNumber:
		if err := p.advance(); err != nil {
			return nil, err
		}
		n, err := strconv.ParseFloat(tok.Lexeme, 64)
		if err != nil {
			return nil, mapyruserr.Newf(mapyruserr.InvalidNumber, "%s:%d: invalid number %q", tok.File, tok.Line, tok.Lexeme)
		}
		return &Literal{Value: value.Number(n)}, nil
	case lexer.TokenString:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &Literal{Value: value.String(tok.Lexeme)}, nil
	case lexer.TokenIdent:
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.at(lexer.TokenLParen) {
			if err := p.advance(); err != nil {
				return nil, err
			}
			var args []Expr
			if !p.at(lexer.TokenRParen) {
				var err error
				args, err = p.argListUntilParen()
				if err != nil {
					return nil, err
				}
			}
			if _, err := p.expect(lexer.TokenRParen); err != nil {
				return nil, err
			}
			return &FunctionCall{Name: tok.Lexeme, Args: args}, nil
		}
		return &VariableExpr{Name: tok.Lexeme}, nil
	case lexer.TokenLParen:
		if err := p.advance(); err != nil {
			return nil, err
		}
		e, err := p.expr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.TokenRParen); err != nil {
			return nil, err
		}
		return e, nil
	default:
		return nil, mapyruserr.Newf(mapyruserr.InvalidExpression, "%s:%d: unexpected token %q in expression", tok.File, tok.Line, tok.Lexeme)
	}
}
