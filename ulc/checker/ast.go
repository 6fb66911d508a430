package checker

import "github.com/ulrun/drc/ulc"

// node is the concrete ulc.Node implementation for every AST shape this
// checker produces. A single struct (rather than one type per production)
// keeps the parser small; Kind plus the typed child slots below it
// disambiguate what each node represents.
type node struct {
	kind ulc.NodeKind
	pos  int
	end  int

	// Identifier / literal text (identifier name, raw literal text).
	name string

	// Generic children, meaning depends on kind:
	//  - SourceFile: top-level statements
	//  - ExportDefaultDecl/ExportNamedDecl: [0]=declaration
	//  - ExportDefaultExpr: [0]=expression
	//  - VariableStatement: [0]=identifier, [1]=typeAnnotation(optional,nil), [2]=initializer
	//  - AssignmentStmt: [0]=lhs identifier, [1]=rhs expression
	//  - CallExpression: [0]=callee, [1]=ParameterList holding the arguments
	//  - FunctionDecl/ArrowFunction/FunctionExpression: [0]=ParameterList, [1]=returnType(optional,nil), [2]=body(opaque)
	//  - ParameterList: one child per parameter (Identifier nodes, each with typeAnnotation in kids[0])
	//  - ImportDeclaration: [0]=optional default binding identifier (nil if side-effect only)
	//  - GlobalDeclBlock: one VariableStatement-shaped child per ambient decl
	kids []*node

	// moduleSpecifier holds the quoted import path's unquoted text for
	// ImportDeclaration nodes.
	moduleSpecifier string

	// typeExpr is set on nodes that are themselves a type annotation
	// (TypeAnnotation kind): its resolved Type, filled in by the parser.
	typeExpr *typeExpr

	// spread marks a CallExpression argument (stored in kids) as a
	// spread element, e.g. ...args.
	spread bool
}

func (n *node) Kind() ulc.NodeKind { return n.kind }
func (n *node) Pos() int           { return n.pos }
func (n *node) End() int           { return n.end }
func (n *node) Text(src string) string {
	if n.pos < 0 || n.end > len(src) || n.pos > n.end {
		return ""
	}
	return src[n.pos:n.end]
}

// Children returns a fixed-order, nil-preserving view of n's kids so
// generic callers (outside this package) can index into known production
// slots — see ulc.Node's doc comment — without a concrete *node downcast.
func (n *node) Children() []ulc.Node {
	out := make([]ulc.Node, len(n.kids))
	for i, k := range n.kids {
		if k == nil {
			continue
		}
		out[i] = k
	}
	return out
}

func mk(kind ulc.NodeKind, pos, end int, kids ...*node) *node {
	return &node{kind: kind, pos: pos, end: end, kids: kids}
}
