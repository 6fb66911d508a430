package lib

import (
	"fmt"
	"strings"

	"github.com/ulrun/drc/ulc"
)

// Diagnostic codes the remapper dispatches on (spec.md §4.4). These mirror
// ulc/checker's private constants of the same value; duplicated here
// because the remapper is written against the ulc surface, not against any
// one concrete checker.
const (
	codeNoDefaultExport  = 1192
	codeNotAModule       = 2306
	codeNotCallable      = 2349
	codeTypeMismatch     = 2322
	codeArgumentMismatch = 2554
)

// RemapDiagnostics is C4: it walks the compiler's raw diagnostics in their
// original order, classifies each (spec.md §4.3), and rewrites it to point
// at the user's source with a domain-appropriate message. The first
// fileless, non-benign diagnostic is a host bug and aborts the whole call
// (spec.md §7) rather than being collected alongside user diagnostics.
func RemapDiagnostics(prog ulc.Program, anchors HarnessAnchors, userFile, harnessFile ulc.SourceFile, expectedReturnType string, expectedArgTypes []string, benignCodes map[int]bool, mappers map[int]MessageMapper) ([]UserCodeError, error) {
	checker := prog.Checker()
	var out []UserCodeError

	for _, d := range prog.Diagnostics() {
		switch ClassifyDiagnostic(d, harnessFile.StrippedName(), benignCodes) {
		case originBenign:
			continue
		case originHostBug:
			return nil, hostErrorf(ErrHostDiagnostic, "code TS%d with no source file", d.Code)
		case originHarness:
			uce, err := remapHarnessDiagnostic(d, anchors, checker, userFile, harnessFile, expectedReturnType, expectedArgTypes)
			if err != nil {
				return nil, err
			}
			out = append(out, uce)
		default:
			uce, err := remapUserDiagnostic(d, checker, mappers)
			if err != nil {
				return nil, err
			}
			out = append(out, uce)
		}
	}
	return out, nil
}

// remapUserDiagnostic handles spec.md §4.4's User branch: line/column come
// directly from the diagnostic's own file, and the stack names the nearest
// enclosing function-like ancestor.
func remapUserDiagnostic(d ulc.Diagnostic, checker ulc.TypeChecker, mappers map[int]MessageMapper) (UserCodeError, error) {
	line, col := d.File.LineAndColumn(d.Start)
	text, err := mapMessage(d.Message, d.Code, mappers)
	if err != nil {
		return UserCodeError{}, err
	}

	enclosing := ""
	if node := checker.SmallestEnclosingNode(d.File, d.Start, d.Length); node != nil {
		enclosing = checker.EnclosingFunctionName(node)
	}

	return UserCodeError{
		Message:  fmt.Sprintf("TypeError: TS%d %s", d.Code, text),
		Stack:    fmt.Sprintf("at %s(%d:%d)", enclosing, line, col),
		Location: ErrorLocation{Line: line, Column: col},
	}, nil
}

// remapHarnessDiagnostic handles spec.md §4.4's Harness branch precedence.
func remapHarnessDiagnostic(d ulc.Diagnostic, anchors HarnessAnchors, checker ulc.TypeChecker, userFile, harnessFile ulc.SourceFile, expectedReturnType string, expectedArgTypes []string) (UserCodeError, error) {
	signature := fmt.Sprintf(`"(...args: [%s]) => %s"`, strings.Join(expectedArgTypes, ", "), expectedReturnType)

	switch d.Code {
	case codeNoDefaultExport:
		return wholeFileDiagnostic(userFile, fmt.Sprintf("No default export. Expected a default export function with the signature: %s.", signature))
	case codeNotAModule:
		return wholeFileDiagnostic(userFile, fmt.Sprintf("No exports. Expected a default export function with the signature: %s.", signature))
	}

	node := checker.SmallestEnclosingNode(harnessFile, d.Start, d.Length)
	kind := anchors.classify(node)

	if d.Code == codeNotCallable && kind == anchorDefaultCallee {
		stmt := findDefaultExportStatement(userFile)
		if stmt == nil {
			return wholeFileDiagnostic(userFile, fmt.Sprintf("No default export. Expected a default export function with the signature: %s.", signature))
		}
		line, col := userFile.LineAndColumn(stmt.Pos())
		return UserCodeError{
			Message:  fmt.Sprintf("TypeError: TS%d Default export is not a valid function. Expected a default export function with the signature: %s.", d.Code, signature),
			Location: ErrorLocation{Line: line, Column: col},
		}, nil
	}

	sym, ok := checker.DefaultExportSymbol(userFile)
	if !ok {
		return wholeFileDiagnostic(userFile, fmt.Sprintf("No default export. Expected a default export function with the signature: %s.", signature))
	}
	sig, callable := checker.TypeOfSymbol(sym).Signature()
	if !callable {
		stmt := findDefaultExportStatement(userFile)
		line, col := userFile.LineAndColumn(stmt.Pos())
		return UserCodeError{
			Message:  fmt.Sprintf("TypeError: TS%d Default export is not a valid function. Expected a default export function with the signature: %s.", d.Code, signature),
			Location: ErrorLocation{Line: line, Column: col},
		}, nil
	}
	fn := functionNodeOf(sym.ValueDeclaration())

	switch kind {
	case anchorResultLHS:
		actual := checker.TypeToString(sig.ReturnType)
		underline := fn
		if fn != nil {
			if kids := fn.Children(); len(kids) > 2 {
				if expr := firstReturnExpr(kids[2]); expr != nil {
					underline = expr
				}
			}
		}
		line, col := userFile.LineAndColumn(underline.Pos())
		return UserCodeError{
			Message:  fmt.Sprintf("TypeError: TS%d Incorrect return type. Expected: '%s', Actual: '%s'.", d.Code, expectedReturnType, actual),
			Stack:    fmt.Sprintf("at %s(%d:%d)", sym.Name(), line, col),
			Location: ErrorLocation{Line: line, Column: col},
		}, nil

	case anchorDefaultCall, anchorDefaultCallee, anchorDefaultArgList:
		expected := "[" + strings.Join(expectedArgTypes, ", ") + "]"
		actualParts := make([]string, len(sig.Parameters))
		for i, p := range sig.Parameters {
			actualParts[i] = checker.TypeToString(p.Type)
		}
		actual := "[" + strings.Join(actualParts, ", ") + "]"

		underline := fn
		if fn != nil && len(sig.Parameters) > 0 {
			if kids := fn.Children(); len(kids) > 0 && kids[0] != nil {
				underline = kids[0]
			}
		}
		pos := 0
		if underline != nil {
			pos = underline.Pos()
		}
		// Underline the first parameter beyond the expected tuple's length,
		// at the end of its name rather than the start, since that is where
		// an arity mismatch begins. When the signature has no such
		// parameter, the end of the last parameter's name is used instead;
		// with no parameters at all, the whole default export's start.
		if idx := len(expectedArgTypes); idx < len(sig.Parameters) && sig.Parameters[idx].DeclarationNode != nil {
			pos = sig.Parameters[idx].DeclarationNode.End()
		} else if n := len(sig.Parameters); n > 0 && sig.Parameters[n-1].DeclarationNode != nil {
			pos = sig.Parameters[n-1].DeclarationNode.End()
		}
		line, col := userFile.LineAndColumn(pos)
		return UserCodeError{
			Message:  fmt.Sprintf("TypeError: TS%d Incorrect argument type. Expected: '%s', Actual: '%s'.", d.Code, expected, actual),
			Stack:    fmt.Sprintf("at %s(%d:%d)", sym.Name(), line, col),
			Location: ErrorLocation{Line: line, Column: col},
		}, nil
	}

	return UserCodeError{}, hostErrorf(ErrUnmappedHarnessNode, "code TS%d at harness offset %d", d.Code, d.Start)
}

func wholeFileDiagnostic(userFile ulc.SourceFile, message string) (UserCodeError, error) {
	return UserCodeError{
		Message:  "TypeError: " + messageCode(message),
		Location: ErrorLocation{Line: 1, Column: 1},
	}, nil
}

// messageCode re-prefixes a no-default-export-family message with its own
// TS code; kept as a tiny helper so wholeFileDiagnostic's caller doesn't
// have to thread the code through twice.
func messageCode(message string) string {
	code := codeNoDefaultExport
	if strings.HasPrefix(message, "No exports.") {
		code = codeNotAModule
	}
	return fmt.Sprintf("TS%d %s", code, message)
}

// findDefaultExportStatement locates the top-level export-default statement
// by structural kind, never by identifier text (spec.md §3 HarnessAST
// invariant extends naturally to this user-file lookup).
func findDefaultExportStatement(file ulc.SourceFile) ulc.Node {
	root := file.AST()
	if root == nil {
		return nil
	}
	for _, stmt := range root.Children() {
		if stmt == nil {
			continue
		}
		switch stmt.Kind() {
		case ulc.KindExportDefaultExpr, ulc.KindExportDefaultDecl:
			return stmt
		}
	}
	return nil
}

// firstReturnExpr finds the expression of the first top-level return inside
// a function-like node's body, so the remapper can underline the specific
// mismatched value rather than the function's own return-type annotation.
// An arrow function's unbraced body is itself the returned expression, since
// parseOpaqueBody never ran to wrap it; a bare string or number literal body
// has the same KindUnknown kind a braced body has, so it yields nil, as does
// a body with no top-level return.
func firstReturnExpr(body ulc.Node) ulc.Node {
	if body == nil {
		return nil
	}
	if body.Kind() != ulc.KindUnknown {
		return body
	}
	for _, stmt := range body.Children() {
		if stmt == nil || stmt.Kind() != ulc.KindReturnStatement {
			continue
		}
		if kids := stmt.Children(); len(kids) > 0 {
			return kids[0]
		}
	}
	return nil
}

// functionNodeOf unwraps a value declaration down to the function-like node
// it introduces: a bare FunctionDecl is already that node; a variable
// declaration's function-valued initializer lives in its third child.
func functionNodeOf(decl ulc.Node) ulc.Node {
	if decl == nil {
		return nil
	}
	if decl.Kind() == ulc.KindVariableStatement {
		kids := decl.Children()
		if len(kids) > 2 {
			return kids[2]
		}
		return nil
	}
	return decl
}
