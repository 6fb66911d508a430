package checker

import (
	"strings"

	"github.com/ulrun/drc/ulc"
)

// parser is a small recursive-descent parser over the UL subset the
// harness and harness-adjacent user code use: imports, declare-global
// blocks, function/arrow/const declarations with optional type
// annotations, export default, and call/assignment statements. Function
// and arrow bodies are consumed as an opaque balanced-brace or
// balanced-expression span; this checker never type-checks statements
// inside a body, only signatures and the harness's own assignment.
type parser struct {
	toks []token
	pos  int
	src  string
}

func parseSource(src string) *node {
	p := &parser{toks: lex(src), src: src}
	return p.parseSourceFile()
}

func (p *parser) cur() token  { return p.toks[p.pos] }
func (p *parser) at(text string) bool {
	t := p.cur()
	return (t.kind == tokPunct || t.kind == tokKeyword) && t.text == text
}
func (p *parser) advance() token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}
func (p *parser) expect(text string) token {
	if p.at(text) {
		return p.advance()
	}
	return p.cur() // tolerant: this checker favors recovery over crashing
}

func (p *parser) parseSourceFile() *node {
	start := p.cur().pos
	var stmts []*node
	for p.cur().kind != tokEOF {
		s := p.parseStatement()
		if s == nil {
			p.advance() // skip unrecognized token, stay resilient
			continue
		}
		stmts = append(stmts, s)
	}
	end := p.cur().end
	n := mk(ulc.KindSourceFile, start, end, stmts...)
	return n
}

func (p *parser) parseStatement() *node {
	switch {
	case p.at("import"):
		return p.parseImport()
	case p.at("declare"):
		return p.parseDeclareGlobal()
	case p.at("export"):
		return p.parseExport()
	case p.at("const"), p.at("let"), p.at("var"):
		return p.parseVariableStatement()
	case p.at("function"):
		return p.parseFunctionDecl(false)
	case p.cur().kind == tokIdent:
		return p.parseIdentLedStatement()
	case p.at(";"):
		p.advance()
		return nil
	default:
		return nil
	}
}

// --- import ---

func (p *parser) parseImport() *node {
	start := p.cur().pos
	p.advance() // import

	var defaultIdent *node
	if p.cur().kind == tokIdent {
		id := p.advance()
		defaultIdent = mk(ulc.KindIdentifier, id.pos, id.end)
		defaultIdent.name = id.text
		p.expect("from")
	}
	specTok := p.advance() // string literal
	spec := unquote(specTok.text)
	p.consumeSemicolon()

	n := mk(ulc.KindImportDeclaration, start, specTok.end, defaultIdent)
	n.moduleSpecifier = spec
	return n
}

// --- declare global { const args: [...]; let result: R; } ---

func (p *parser) parseDeclareGlobal() *node {
	start := p.cur().pos
	p.advance() // declare
	p.expect("global")
	p.expect("{")

	var decls []*node
	for !p.at("}") && p.cur().kind != tokEOF {
		if p.at("const") || p.at("let") || p.at("var") {
			decls = append(decls, p.parseVariableStatement())
			continue
		}
		p.advance()
	}
	end := p.cur().end
	p.expect("}")
	n := mk(ulc.KindGlobalDeclBlock, start, end, decls...)
	return n
}

// --- export ---

func (p *parser) parseExport() *node {
	start := p.cur().pos
	p.advance() // export

	if p.at("default") {
		p.advance()
		switch {
		case p.at("function"):
			fn := p.parseFunctionDecl(true)
			n := mk(ulc.KindExportDefaultDecl, start, fn.End(), fn)
			return n
		default:
			expr := p.parseAssignmentExpr()
			p.consumeSemicolon()
			n := mk(ulc.KindExportDefaultExpr, start, expr.End(), expr)
			return n
		}
	}

	// export function / export const ...
	inner := p.parseStatement()
	if inner == nil {
		return mk(ulc.KindExportNamedDecl, start, p.cur().end)
	}
	return mk(ulc.KindExportNamedDecl, start, inner.End(), inner)
}

// --- variable statement: (const|let|var) name (: Type)? = init ; ---

func (p *parser) parseVariableStatement() *node {
	start := p.cur().pos
	p.advance() // const/let/var

	idTok := p.advance()
	ident := mk(ulc.KindIdentifier, idTok.pos, idTok.end)
	ident.name = idTok.text

	var typeNode *node
	if p.at(":") {
		p.advance()
		typeNode = p.parseTypeAnnotation()
	}

	var init *node
	if p.at("=") {
		p.advance()
		init = p.parseAssignmentExpr()
	}
	end := p.cur().end
	p.consumeSemicolon()
	if init != nil {
		end = init.End()
	} else if typeNode != nil {
		end = typeNode.End()
	} else {
		end = ident.End()
	}

	kids := []*node{ident, typeNode, init}
	n := mk(ulc.KindVariableStatement, start, end, kids...)
	return n
}

// --- function declaration / expression ---

// parseFunctionDecl parses `function Name? (params) (: RetType)? { body }`.
// named indicates whether a name is expected (it is optional either way;
// anonymous function expressions reuse this path with named=false).
func (p *parser) parseFunctionDecl(named bool) *node {
	start := p.cur().pos
	p.advance() // function
	_ = named

	var name string
	if p.cur().kind == tokIdent {
		t := p.advance()
		name = t.text
	}

	params := p.parseParameterList()
	var retType *node
	if p.at(":") {
		p.advance()
		retType = p.parseTypeAnnotation()
	}
	body := p.parseOpaqueBody()

	kind := ulc.KindFunctionDecl
	if name == "" {
		kind = ulc.KindFunctionExpression
	}
	n := mk(kind, start, body.End(), params, retType, body)
	n.name = name
	return n
}

func (p *parser) parseParameterList() *node {
	start := p.cur().pos
	p.expect("(")
	var params []*node
	for !p.at(")") && p.cur().kind != tokEOF {
		pTok := p.advance()
		ident := mk(ulc.KindIdentifier, pTok.pos, pTok.end)
		ident.name = pTok.text
		var typeNode *node
		if p.at(":") {
			p.advance()
			typeNode = p.parseTypeAnnotation()
		}
		param := mk(ulc.KindIdentifier, ident.pos, ident.end, typeNode)
		param.name = ident.name
		params = append(params, param)
		if p.at(",") {
			p.advance()
		}
	}
	end := p.cur().end
	p.expect(")")
	n := mk(ulc.KindParameterList, start, end, params...)
	return n
}

// parseTypeAnnotation parses a type expression used as an annotation
// (identifier, T[], or [T1, T2, ...]) and records both the AST node and
// its resolved typeExpr.
func (p *parser) parseTypeAnnotation() *node {
	start := p.cur().pos
	te := p.parseType()
	end := p.toks[p.pos-1].end
	n := mk(ulc.KindTypeAnnotation, start, end)
	n.typeExpr = te
	return n
}

// parseType parses a type and advances past it; used both for inline
// annotations and for parsing a caller-supplied opaque type string.
func (p *parser) parseType() *typeExpr {
	var base *typeExpr
	switch {
	case p.at("["):
		p.advance()
		var elts []*typeExpr
		for !p.at("]") && p.cur().kind != tokEOF {
			elts = append(elts, p.parseType())
			if p.at(",") {
				p.advance()
			}
		}
		p.expect("]")
		base = &typeExpr{kind: typeTuple, elts: elts}
	default:
		t := p.advance()
		switch t.text {
		case "any":
			base = tAny
		case "void":
			base = tVoid
		case "string":
			base = tString
		case "number":
			base = tNumber
		case "boolean":
			base = tBoolean
		default:
			base = namedType(t.text)
		}
	}
	for p.at("[") && p.peekIsEmptyBrackets() {
		p.advance()
		p.advance() // ]
		base = &typeExpr{kind: typeArray, elem: base}
	}
	return base
}

func (p *parser) peekIsEmptyBrackets() bool {
	return p.toks[p.pos+1].kind == tokPunct && p.toks[p.pos+1].text == "]"
}

// --- identifier-led statements: assignment or expression (call) ---

func (p *parser) parseIdentLedStatement() *node {
	start := p.cur().pos
	expr := p.parseAssignmentExpr()
	p.consumeSemicolon()
	if expr.kind == ulc.KindAssignmentStmt {
		return expr
	}
	_ = start
	return expr
}

// parseAssignmentExpr parses `lhs = rhs` or falls through to a call/primary
// expression. The right-hand side is parsed recursively, so `a = b = c`
// parses as `a = (b = c)`; the harness itself only ever contains one
// assignment statement.
func (p *parser) parseAssignmentExpr() *node {
	lhs := p.parseCallOrPrimary()
	if p.at("=") && lhs.kind == ulc.KindIdentifier {
		p.advance()
		rhs := p.parseAssignmentExpr()
		return mk(ulc.KindAssignmentStmt, lhs.pos, rhs.End(), lhs, rhs)
	}
	return lhs
}

func (p *parser) parseCallOrPrimary() *node {
	prim := p.parsePrimary()
	for p.at("(") {
		prim = p.parseCallArguments(prim)
	}
	return prim
}

func (p *parser) parseCallArguments(callee *node) *node {
	p.expect("(")
	argsStart := p.cur().pos
	var args []*node
	for !p.at(")") && p.cur().kind != tokEOF {
		spread := false
		if p.at("...") {
			p.advance()
			spread = true
		}
		arg := p.parseAssignmentExpr()
		arg.spread = spread
		args = append(args, arg)
		if p.at(",") {
			p.advance()
		}
	}
	argsEnd := p.cur().end
	p.expect(")")
	argList := mk(ulc.KindParameterList, argsStart, argsEnd, args...)
	call := mk(ulc.KindCallExpression, callee.pos, argList.End(), callee, argList)
	return call
}

func (p *parser) parsePrimary() *node {
	t := p.cur()
	switch {
	case t.kind == tokIdent:
		p.advance()
		n := mk(ulc.KindIdentifier, t.pos, t.end)
		n.name = t.text
		return n
	case t.kind == tokString || t.kind == tokNumber:
		p.advance()
		n := mk(ulc.KindUnknown, t.pos, t.end)
		n.name = t.text
		return n
	case p.at("("):
		// Either a parenthesized expression or an arrow function's
		// parameter list; disambiguated by looking for `=>` after the
		// matching close paren.
		if p.looksLikeArrow() {
			return p.parseArrowFunction()
		}
		p.advance()
		inner := p.parseAssignmentExpr()
		p.expect(")")
		return inner
	case p.at("function"):
		return p.parseFunctionDecl(false)
	case p.at("..."):
		p.advance()
		return p.parsePrimary()
	default:
		p.advance()
		return mk(ulc.KindUnknown, t.pos, t.end)
	}
}

func (p *parser) looksLikeArrow() bool {
	depth := 0
	i := p.pos
	for i < len(p.toks) {
		t := p.toks[i]
		if t.kind == tokPunct && t.text == "(" {
			depth++
		} else if t.kind == tokPunct && t.text == ")" {
			depth--
			if depth == 0 {
				nxt := p.toks[i+1]
				return nxt.kind == tokPunct && nxt.text == "=>" ||
					(nxt.kind == tokPunct && nxt.text == ":" && arrowAfterType(p.toks, i+1))
			}
		} else if t.kind == tokEOF {
			return false
		}
		i++
	}
	return false
}

func arrowAfterType(toks []token, from int) bool {
	// Skip `: Type` up to the next `=>` or statement terminator.
	for i := from; i < len(toks); i++ {
		switch toks[i].text {
		case "=>":
			return true
		case ";", "{":
			return false
		}
	}
	return false
}

func (p *parser) parseArrowFunction() *node {
	start := p.cur().pos
	params := p.parseParameterList()
	var retType *node
	if p.at(":") {
		p.advance()
		retType = p.parseTypeAnnotation()
	}
	p.expect("=>")

	var body *node
	if p.at("{") {
		body = p.parseOpaqueBody()
	} else {
		body = p.parseAssignmentExpr()
	}
	n := mk(ulc.KindArrowFunction, start, body.End(), params, retType, body)
	return n
}

// parseOpaqueBody parses a function/arrow `{ ... }` body. The body stays
// opaque in the sense this checker has always used the word — no binding,
// no type-checking of its statements — but a top-level `return` is
// structural enough that the remapper needs a real node for it (to
// underline the returned expression, not just the enclosing function), so
// each one found at brace-depth zero is parsed properly and kept as a
// child; everything else is skipped token by token.
func (p *parser) parseOpaqueBody() *node {
	start := p.cur().pos
	p.expect("{")
	var returns []*node
	depth := 0
loop:
	for p.cur().kind != tokEOF {
		switch {
		case p.at("}") && depth == 0:
			break loop
		case p.at("{"):
			depth++
			p.advance()
		case p.at("}"):
			depth--
			p.advance()
		case depth == 0 && p.at("return"):
			returns = append(returns, p.parseReturnStatement())
		default:
			p.advance()
		}
	}
	end := p.cur().end
	p.expect("}")
	return mk(ulc.KindUnknown, start, end, returns...)
}

// parseReturnStatement parses `return <expr>? ;` as a real node so its
// expression carries an accurate position, the same way any other
// expression in this parser does.
func (p *parser) parseReturnStatement() *node {
	start := p.cur().pos
	p.advance() // return
	var expr *node
	if !p.at(";") && !p.at("}") && p.cur().kind != tokEOF {
		expr = p.parseAssignmentExpr()
	}
	end := p.toks[p.pos-1].end
	p.consumeSemicolon()
	return mk(ulc.KindReturnStatement, start, end, expr)
}

func (p *parser) consumeSemicolon() {
	if p.at(";") {
		p.advance()
	}
}

func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		return s[1 : len(s)-1]
	}
	return s
}
