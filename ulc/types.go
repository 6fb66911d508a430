// Package ulc declares the surface of the UL compiler/type-checker that the
// diagnostic remapping core consumes. The compiler itself — lexing,
// parsing, binding, type inference — is an external collaborator; this
// package names only the operations the core drives it through.
package ulc

// NodeKind identifies the syntactic shape of a Node without requiring
// callers to downcast through a concrete AST type.
type NodeKind int

const (
	KindUnknown NodeKind = iota
	KindSourceFile          // children: top-level statements, in source order
	KindImportDeclaration   // children: [0]=default binding identifier or nil
	KindExportDefaultExpr   // export default <expr>;          children: [0]=expr
	KindExportDefaultDecl   // export default function F(...) {} children: [0]=FunctionDecl
	KindExportNamedDecl     // export function F(...) {} / export const x = ... ; children: [0]=inner decl
	KindFunctionDecl        // function F(...): R {...} (named)  children: [0]=params,[1]=returnType|nil,[2]=body
	KindArrowFunction       // (...): R => ...                   children: same slots as KindFunctionDecl
	KindFunctionExpression  // function(...): R {...} (anonymous) children: same slots as KindFunctionDecl
	KindVariableStatement   // const/let/var x: T = init;        children: [0]=identifier,[1]=type|nil,[2]=init|nil
	KindAssignmentStmt      // result = ...;                     children: [0]=lhs identifier,[1]=rhs expr
	KindCallExpression      //                                   children: [0]=callee,[1]=argument ParameterList
	KindIdentifier
	KindParameterList // function params, or a call's argument list; children: one per parameter/argument
	KindTypeAnnotation
	KindGlobalDeclBlock // declare global { ... }  children: one VariableStatement-shaped node per ambient decl
	KindReturnStatement // return <expr>?;  children: [0]=expr, or nil for a bare `return;`
)

// Node is a position in the UL AST. The core never pattern-matches node
// text; it compares Node values (or the IDs beneath them) for identity
// against the HarnessAST anchors.
type Node interface {
	Kind() NodeKind
	Pos() int // byte offset of the first character, inclusive
	End() int // byte offset one past the last character, exclusive
	Text(src string) string
	// Children returns this node's direct children in a fixed,
	// production-specific order (documented per NodeKind in ulc/types.go's
	// kind list). A slot with no child is a literal nil entry, not an
	// omitted one, so callers can index into it positionally — this is how
	// the harness anchors (spec.md §3) are located: by structural position,
	// never by searching for an identifier's text.
	Children() []Node
}

// Symbol is a named binding resolved by the checker: a function, variable,
// or the module's default export.
type Symbol interface {
	Name() string
	// ValueDeclaration is the node that introduced this symbol's value,
	// e.g. the function declaration or the initializer's identifier.
	ValueDeclaration() Node
	// Aliased reports whether this symbol is a re-export/alias of another
	// symbol, and if so, that target. Used for the one-alias-hop rule in
	// spec.md §4.4/§9.
	Aliased() (Symbol, bool)
}

// Type is an opaque type as reported by the checker. Only TypeChecker can
// produce a human-readable rendering of one (typeToString).
type Type interface {
	// Signature returns the call signature if this type is callable
	// (directly, or as the single overload the checker picked).
	Signature() (Signature, bool)
}

// Signature is a function type's call shape.
type Signature struct {
	Parameters []Parameter
	ReturnType Type
}

// Parameter is one parameter of a call signature.
type Parameter struct {
	Name string
	Type Type
	// DeclarationNode is the parameter's declaration site, used when the
	// remapper needs to underline or re-render an individual parameter.
	DeclarationNode Node
}

// Chain is a diagnostic message together with any chained sub-messages,
// mirroring the UL compiler's "message chain" shape (spec.md §3).
type Chain struct {
	Text string
	Code int
	Next []Chain
}

// MessageText is either a bare string or a Chain; exactly one is set.
type MessageText struct {
	Text  string
	Chain *Chain
}

func (m MessageText) IsChain() bool { return m.Chain != nil }

// Diagnostic is a raw diagnostic as produced by the UL compiler, before any
// remapping (spec.md §3).
type Diagnostic struct {
	File    SourceFile // nil if the compiler attached no file
	Start   int        // byte offset into File.Text(), -1 if unset
	Length  int
	Code    int
	Message MessageText
}

// HasFile reports whether the diagnostic is rooted in a source file, as
// opposed to a host-level diagnostic (spec.md §4.2 Failure mode).
func (d Diagnostic) HasFile() bool { return d.File != nil }
