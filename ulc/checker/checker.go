// Package checker is the one concrete implementation of the ulc compiler
// surface this repository ships. It is a small, gradually-typed checker for
// the narrow UL subset the synthesized harness and harness-adjacent user
// code exercise (see SPEC_FULL.md "UL COMPILER SURFACE"): function/arrow
// declarations with optional parameter/return annotations over a
// primitive+array+tuple type grammar, const/let bindings, default exports,
// side-effect and default imports, and the harness's own
// `result = defaultExport(...args)` assignment.
package checker

import (
	"fmt"
	"strings"

	"github.com/ulrun/drc/ulc"
)

// sourceFile is the checker's ulc.SourceFile implementation.
type sourceFile struct {
	strippedName  string
	text          string
	isDeclaration bool
	ast           *node
	lineStarts    []int
}

func newSourceFile(strippedName, text string, isDeclaration bool) *sourceFile {
	sf := &sourceFile{strippedName: strippedName, text: text, isDeclaration: isDeclaration}
	sf.ast = parseSource(text)
	sf.lineStarts = computeLineStarts(text)
	return sf
}

func computeLineStarts(text string) []int {
	starts := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}

func (f *sourceFile) StrippedName() string { return f.strippedName }
func (f *sourceFile) Text() string         { return f.text }
func (f *sourceFile) AST() ulc.Node        { return f.ast }

func (f *sourceFile) LineAndColumn(offset int) (line, column int) {
	if offset < 0 {
		offset = 0
	}
	if offset > len(f.text) {
		offset = len(f.text)
	}
	lo, hi := 0, len(f.lineStarts)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if f.lineStarts[mid] <= offset {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo + 1, offset - f.lineStarts[lo] + 1
}

// symbolImpl is the checker's ulc.Symbol implementation.
type symbolImpl struct {
	name      string
	valueDecl *node
	alias     *symbolImpl
	typ       *typeExpr
}

func (s *symbolImpl) Name() string           { return s.name }
func (s *symbolImpl) ValueDeclaration() ulc.Node {
	if s.valueDecl == nil {
		return nil
	}
	return s.valueDecl
}
func (s *symbolImpl) Aliased() (ulc.Symbol, bool) {
	if s.alias == nil {
		return nil, false
	}
	return s.alias, true
}

// fileBinding holds everything the checker derived for one file: its
// top-level symbol table, and (if any) the symbol its default export
// resolves to, one alias hop applied.
type fileBinding struct {
	file          *sourceFile
	symbols       map[string]*symbolImpl
	defaultExport *symbolImpl
	defaultExists bool // true if an `export default` appeared at all
	hasAnyExport  bool // true if the file has any import/export statement
}

type programImpl struct {
	files       map[string]*fileBinding
	order       []string // stripped names in host iteration order
	diagnostics []ulc.Diagnostic
	checker     *checkerImpl
}

// Compile binds and type-checks every virtual file host serves, producing
// a Program with diagnostics ordered the way they were discovered (depth
// first over host.VirtualFileNames(), one file at a time) per spec.md §5.
func Compile(host ulc.CompilerHost, opts ulc.CompileOptions) ulc.Program {
	p := &programImpl{files: map[string]*fileBinding{}}
	p.checker = &checkerImpl{prog: p}

	for _, name := range host.VirtualFileNames() {
		text, isDecl, ok := host.ReadVirtualFile(name)
		if !ok {
			continue
		}
		sf := newSourceFile(name, text, isDecl)
		fb := &fileBinding{file: sf, symbols: map[string]*symbolImpl{}}
		p.files[name] = fb
		p.order = append(p.order, name)
	}

	for _, name := range p.order {
		p.bindFile(p.files[name])
	}
	for _, name := range p.order {
		p.resolveDefaultExport(p.files[name])
	}
	for _, name := range p.order {
		p.typeCheckFile(p.files[name])
	}

	return p
}

func (p *programImpl) Diagnostics() []ulc.Diagnostic { return p.diagnostics }

func (p *programImpl) SourceFile(strippedName string) (ulc.SourceFile, bool) {
	fb, ok := p.files[strippedName]
	if !ok {
		return nil, false
	}
	return fb.file, true
}

func (p *programImpl) Emitted() []ulc.EmittedFile {
	var out []ulc.EmittedFile
	for _, name := range p.order {
		fb := p.files[name]
		if fb.file.isDeclaration {
			continue
		}
		js, sm := emitJS(fb.file)
		out = append(out, ulc.EmittedFile{StrippedName: name, JS: js, SourceMap: sm})
	}
	return out
}

func (p *programImpl) Checker() ulc.TypeChecker { return p.checker }

func (p *programImpl) report(file *sourceFile, start, length, code int, text string) {
	p.diagnostics = append(p.diagnostics, ulc.Diagnostic{
		File:    file,
		Start:   start,
		Length:  length,
		Code:    code,
		Message: ulc.MessageText{Text: text},
	})
}

// --- binding ---

func (p *programImpl) bindFile(fb *fileBinding) {
	for _, stmt := range fb.file.ast.kids {
		p.bindStatement(fb, stmt)
	}
}

func (p *programImpl) bindStatement(fb *fileBinding, s *node) {
	switch s.kind {
	case ulc.KindImportDeclaration:
		fb.hasAnyExport = true // presence of any import/export makes this a module
		if len(s.kids) > 0 && s.kids[0] != nil {
			id := s.kids[0]
			fb.symbols[id.name] = &symbolImpl{name: id.name, valueDecl: s}
		}
	case ulc.KindGlobalDeclBlock:
		for _, decl := range s.kids {
			p.bindVariable(fb, decl, false)
		}
	case ulc.KindVariableStatement:
		p.bindVariable(fb, s, false)
	case ulc.KindFunctionDecl:
		if s.name != "" {
			fb.symbols[s.name] = &symbolImpl{name: s.name, valueDecl: s, typ: functionType(s, fb.file.text)}
		}
	case ulc.KindExportNamedDecl:
		fb.hasAnyExport = true
		if len(s.kids) == 1 {
			p.bindStatement(fb, s.kids[0])
		}
	case ulc.KindExportDefaultDecl:
		fb.hasAnyExport = true
		fb.defaultExists = true
		fn := s.kids[0]
		sym := &symbolImpl{name: fn.name, valueDecl: fn, typ: functionType(fn, fb.file.text)}
		if fn.name != "" {
			fb.symbols[fn.name] = sym
		}
		fb.defaultExport = sym
	case ulc.KindExportDefaultExpr:
		fb.hasAnyExport = true
		fb.defaultExists = true
		expr := s.kids[0]
		fb.defaultExport = p.bindDefaultExportExpr(fb, expr)
	}
}

func (p *programImpl) bindVariable(fb *fileBinding, s *node, exported bool) {
	if s.kind != ulc.KindVariableStatement || len(s.kids) < 3 {
		return
	}
	ident, typeNode, init := s.kids[0], s.kids[1], s.kids[2]
	var typ *typeExpr
	switch {
	case typeNode != nil:
		typ = typeNode.typeExpr
	case init != nil:
		typ = inferExprType(fb.file, init)
	default:
		typ = tAny
	}
	fb.symbols[ident.name] = &symbolImpl{name: ident.name, valueDecl: s, typ: typ}
	_ = exported
}

// bindDefaultExportExpr builds the symbol an `export default <expr>;`
// refers to. An identifier expression is one alias hop: look the name up in
// this file's symbol table (which must already be bound, since bindFile
// visits statements in source order and the harness/user convention is to
// declare the value before the export-default statement).
func (p *programImpl) bindDefaultExportExpr(fb *fileBinding, expr *node) *symbolImpl {
	switch expr.kind {
	case ulc.KindIdentifier:
		if sym, ok := fb.symbols[expr.name]; ok {
			return &symbolImpl{name: sym.name, valueDecl: sym.valueDecl, alias: sym, typ: sym.typ}
		}
		return nil // unresolved alias -> no-default-export path (spec.md §4.4)
	case ulc.KindArrowFunction, ulc.KindFunctionExpression:
		return &symbolImpl{name: "", valueDecl: expr, typ: functionType(expr, fb.file.text)}
	default:
		return &symbolImpl{name: "", valueDecl: expr, typ: inferExprType(fb.file, expr)}
	}
}

func (p *programImpl) resolveDefaultExport(fb *fileBinding) {
	// Nothing extra to do: bindDefaultExportExpr already performed the one
	// alias hop at bind time. This pass exists so cross-file import
	// resolution (below) can run after every file's own bindings settle.
	_ = fb
}

// --- function signatures & expression-type inference ---

func functionType(fn *node, src string) *typeExpr {
	if len(fn.kids) < 2 {
		return &typeExpr{kind: typeFunction, sig: &ulc.Signature{ReturnType: tAny}}
	}
	paramList, retTypeNode := fn.kids[0], fn.kids[1]
	var body *node
	if len(fn.kids) > 2 {
		body = fn.kids[2]
	}

	var params []ulc.Parameter
	if paramList != nil {
		for _, pnode := range paramList.kids {
			var pt *typeExpr = tAny
			if len(pnode.kids) > 0 && pnode.kids[0] != nil {
				pt = pnode.kids[0].typeExpr
			}
			params = append(params, ulc.Parameter{Name: pnode.name, Type: pt, DeclarationNode: pnode})
		}
	}

	var ret *typeExpr
	if retTypeNode != nil {
		ret = retTypeNode.typeExpr
	} else if body != nil {
		ret = inferReturnType(body, src)
	} else {
		ret = tAny
	}

	return &typeExpr{kind: typeFunction, sig: &ulc.Signature{Parameters: params, ReturnType: ret}}
}

// inferExprType infers a limited set of expression shapes: function and
// arrow expressions (their signature) and literals. Anything else,
// identifier references included, is `any`.
func inferExprType(file *sourceFile, expr *node) *typeExpr {
	if expr == nil {
		return tAny
	}
	switch expr.kind {
	case ulc.KindArrowFunction, ulc.KindFunctionExpression:
		return functionType(expr, file.text)
	case ulc.KindUnknown:
		return literalType(expr.Text(file.text))
	default:
		return tAny
	}
}

func literalType(text string) *typeExpr {
	text = strings.TrimSpace(text)
	switch {
	case strings.HasPrefix(text, "'") || strings.HasPrefix(text, "\"") || strings.HasPrefix(text, "`"):
		return tString
	case text == "true" || text == "false":
		return tBoolean
	case len(text) > 0 && (isDigit(text[0]) || text[0] == '.'):
		return tNumber
	default:
		return tAny
	}
}

// inferReturnType scans a function body's raw text for the first occurrence
// of `return` (a plain text search, at any nesting depth) and classifies the returned expression by the literal forms it
// textually contains. This checker does not build a full control-flow or
// expression-type analysis for bodies; spec.md treats the UL compiler's
// deep semantics as an external collaborator, and the harness never needs
// more than this to report an unannotated function's apparent return type.
func inferReturnType(body *node, src string) *typeExpr {
	return classifyReturnExpr(body.Text(src))
}

func classifyReturnExpr(body string) *typeExpr {
	idx := strings.Index(body, "return")
	if idx < 0 {
		return tVoid
	}
	rest := body[idx+len("return"):]
	end := strings.IndexAny(rest, ";}")
	if end >= 0 {
		rest = rest[:end]
	}
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return tVoid
	}
	switch {
	case strings.ContainsAny(rest, "'\"`"):
		return tString
	case strings.Contains(rest, "true") || strings.Contains(rest, "false"):
		return tBoolean
	case isNumericLiteralExpr(rest):
		return tNumber
	default:
		return tAny
	}
}

func isNumericLiteralExpr(s string) bool {
	if s == "" {
		return false
	}
	return isDigit(s[0])
}

// --- diagnostics codes (see ulc/checker/diagnostics.go for the registry) ---

func (p *programImpl) typeCheckFile(fb *fileBinding) {
	for _, stmt := range fb.file.ast.kids {
		p.typeCheckStatement(fb, stmt)
	}
}

func (p *programImpl) typeCheckStatement(fb *fileBinding, s *node) {
	switch s.kind {
	case ulc.KindImportDeclaration:
		p.checkImport(fb, s)
	case ulc.KindAssignmentStmt:
		p.checkAssignment(fb, s)
	case ulc.KindExportNamedDecl:
		if len(s.kids) == 1 {
			p.typeCheckStatement(fb, s.kids[0])
		}
	}
}

func (p *programImpl) checkImport(fb *fileBinding, imp *node) {
	if len(imp.kids) == 0 || imp.kids[0] == nil {
		return // side-effect import; target presence is a host concern
	}
	idNode := imp.kids[0]
	target, ok := p.files[imp.moduleSpecifier]
	if !ok {
		p.report(fb.file, idNode.pos, idNode.end-idNode.pos, codeCannotFindModule,
			fmt.Sprintf("Cannot find module '%s'.", imp.moduleSpecifier))
		fb.symbols[idNode.name] = &symbolImpl{name: idNode.name, typ: tError}
		return
	}

	sym, ok := p.checker.DefaultExportSymbol(target.file)
	if !ok {
		code, msg := noDefaultExportDiagnostic(target)
		p.report(fb.file, idNode.pos, idNode.end-idNode.pos, code, msg)
		fb.symbols[idNode.name] = &symbolImpl{name: idNode.name, typ: tError}
		return
	}
	impl := sym.(*symbolImpl)
	fb.symbols[idNode.name] = &symbolImpl{name: idNode.name, valueDecl: impl.valueDecl, typ: impl.typ}
}

func noDefaultExportDiagnostic(target *fileBinding) (int, string) {
	if !target.hasAnyExport {
		return codeNotAModule, fmt.Sprintf("File '%s' is not a module.", target.file.strippedName)
	}
	return codeNoDefaultExport, fmt.Sprintf("Module '%s' has no default export.", target.file.strippedName)
}

func (p *programImpl) checkAssignment(fb *fileBinding, assign *node) {
	lhs, rhs := assign.kids[0], assign.kids[1]
	lhsSym, ok := fb.symbols[lhs.name]
	if !ok {
		return
	}
	if rhs.kind != ulc.KindCallExpression {
		return
	}
	callee, argList := rhs.kids[0], rhs.kids[1]
	calleeSym, ok := fb.symbols[callee.name]
	if !ok {
		return
	}
	calleeType := calleeSym.typ
	if calleeType != nil && calleeType.kind == typeError {
		return // the failed import is already reported; don't cascade
	}
	sig, callable := functionSignature(calleeType)
	if !callable {
		p.report(fb.file, callee.pos, callee.end-callee.pos, codeNotCallable,
			fmt.Sprintf("This expression is not callable. Type '%s' has no call signatures.", typeToString(calleeType)))
		return
	}

	p.checkArguments(fb, argList, sig)

	retType := sig.ReturnType
	if !isAssignable(asTypeExpr(retType), asTypeExpr(lhsSym.typ)) {
		p.report(fb.file, lhs.pos, lhs.end-lhs.pos, codeTypeMismatch,
			fmt.Sprintf("Type '%s' is not assignable to type '%s'.", typeToString(asTypeExpr(retType)), typeToString(lhsSym.typ)))
	}
}

func (p *programImpl) checkArguments(fb *fileBinding, argList *node, sig ulc.Signature) {
	argTypes := p.resolveArgTypes(fb, argList)
	if len(argTypes) == len(sig.Parameters) {
		ok := true
		for i, at := range argTypes {
			if !isAssignable(at, asTypeExpr(sig.Parameters[i].Type)) {
				ok = false
				break
			}
		}
		if ok {
			return
		}
	}

	// loc is the argument list's own span; when the callee takes no
	// parameters at all the remapper falls back to underlining the whole
	// default export instead (spec.md §4.4 item 5).
	loc := argList
	expected := tupleTypeString(argTypes)
	actualParts := make([]string, len(sig.Parameters))
	for i, pr := range sig.Parameters {
		actualParts[i] = typeToString(asTypeExpr(pr.Type))
	}
	actual := "[" + strings.Join(actualParts, ", ") + "]"
	p.report(fb.file, loc.pos, loc.end-loc.pos, codeArgumentMismatch,
		fmt.Sprintf("Incorrect argument type. Expected: '%s', Actual: '%s'.", expected, actual))
}

// resolveArgTypes expands a call's argument list, resolving a single
// spread-of-ambient-tuple argument (`...args`) into its tuple element
// types; this is the only spread shape the harness ever produces.
func (p *programImpl) resolveArgTypes(fb *fileBinding, argList *node) []*typeExpr {
	var out []*typeExpr
	for _, arg := range argList.kids {
		if arg.spread && arg.kind == ulc.KindIdentifier {
			if sym, ok := fb.symbols[arg.name]; ok {
				if t := asTypeExpr(sym.typ); t != nil && t.kind == typeTuple {
					out = append(out, t.elts...)
					continue
				}
			}
		}
		out = append(out, inferExprType(fb.file, arg))
	}
	return out
}

func tupleTypeString(elts []*typeExpr) string {
	parts := make([]string, len(elts))
	for i, e := range elts {
		parts[i] = typeToString(e)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func functionSignature(t *typeExpr) (ulc.Signature, bool) {
	if t == nil || t.kind != typeFunction || t.sig == nil {
		return ulc.Signature{}, false
	}
	return *t.sig, true
}

func asTypeExpr(t ulc.Type) *typeExpr {
	if t == nil {
		return nil
	}
	te, _ := t.(*typeExpr)
	return te
}

// --- checkerImpl: ulc.TypeChecker ---

type checkerImpl struct {
	prog *programImpl
}

func (c *checkerImpl) DefaultExportSymbol(file ulc.SourceFile) (ulc.Symbol, bool) {
	sf, ok := file.(*sourceFile)
	if !ok {
		return nil, false
	}
	fb, ok := c.prog.files[sf.strippedName]
	if !ok || fb.defaultExport == nil {
		return nil, false
	}
	return fb.defaultExport, true
}

func (c *checkerImpl) TypeOfSymbol(sym ulc.Symbol) ulc.Type {
	impl, ok := sym.(*symbolImpl)
	if !ok || impl.typ == nil {
		return tAny
	}
	return impl.typ
}

func (c *checkerImpl) TypeToString(t ulc.Type) string {
	return typeToString(asTypeExpr(t))
}

func (c *checkerImpl) EnclosingFunctionName(n ulc.Node) string {
	// n comes from a SourceFile's AST walked by the caller; this checker's
	// nodes don't carry parent pointers, so ancestry is found by re-walking
	// from every file's root looking for n within a function body.
	target, ok := n.(*node)
	if !ok {
		return ""
	}
	for _, name := range c.prog.order {
		fb := c.prog.files[name]
		if name, found := searchEnclosingFunction(fb.file.ast, target, ""); found {
			return name
		}
	}
	return ""
}

// searchEnclosingFunction walks n's subtree looking for target, tracking
// the nearest function-like ancestor's name as it descends. It returns
// (enclosingName, true) the moment target is located anywhere in n's
// subtree, whether or not target itself is the function.
func searchEnclosingFunction(n *node, target *node, enclosingName string) (string, bool) {
	if n == nil {
		return "", false
	}
	here := enclosingName
	switch n.kind {
	case ulc.KindFunctionDecl:
		here = n.name
	case ulc.KindArrowFunction, ulc.KindFunctionExpression:
		here = ""
	}
	if n == target {
		return enclosingName, true
	}
	for _, k := range n.kids {
		if name, found := searchEnclosingFunction(k, target, here); found {
			return name, true
		}
	}
	return "", false
}

func (c *checkerImpl) SmallestEnclosingNode(file ulc.SourceFile, start, length int) ulc.Node {
	sf, ok := file.(*sourceFile)
	if !ok {
		return nil
	}
	end := start + length
	return smallestEnclosing(sf.ast, start, end)
}

func smallestEnclosing(n *node, start, end int) *node {
	if n == nil || start < n.pos || end > n.end {
		return nil
	}
	best := n
	for _, k := range n.kids {
		if k == nil {
			continue
		}
		if got := smallestEnclosing(k, start, end); got != nil {
			best = got
			break
		}
	}
	return best
}
