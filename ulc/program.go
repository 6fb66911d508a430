package ulc

// SourceFile is one compiled unit, identified by its stripped logical name
// (spec.md §3 VirtualFile / "stripped name").
type SourceFile interface {
	// StrippedName is the file's identity for virtual-file and
	// import-specifier purposes: the logical name with any extension
	// removed.
	StrippedName() string
	Text() string
	// AST is the root SourceFile node for this file.
	AST() Node
	// LineAndColumn converts a byte offset into this file's text to a
	// 1-based (line, column) pair.
	LineAndColumn(offset int) (line, column int)
}

// EmittedFile is the compiled JS output for one non-declaration
// SourceFile, plus its source map text if source maps were requested.
type EmittedFile struct {
	StrippedName string
	JS           string
	SourceMap    string // empty if this file produced no map
}

// CompilerHost serves virtual files to the compiler by stripped name, and
// falls through to a real filesystem only for the UL standard library
// (spec.md §4.2).
type CompilerHost interface {
	// ReadVirtualFile returns the text of a virtual file by stripped name,
	// or ok=false if the host does not know that name (in which case the
	// compiler may try its library fallback).
	ReadVirtualFile(strippedName string) (text string, isDeclaration bool, ok bool)
	// VirtualFileNames lists every stripped name the host serves, in a
	// stable order (needed so the assembler can iterate deterministically).
	VirtualFileNames() []string
}

// CompileOptions are the fixed compiler options spec.md §4.2 mandates:
// latest target, ES module output, latest-only standard library, source
// maps on. The struct exists so call sites read the intent rather than a
// bag of magic flags.
type CompileOptions struct {
	SourceMap bool
}

// Program is the result of compiling a CompilerHost's virtual file set. It
// is the handle the rest of the DRC drives the UL compiler's AST, symbol,
// and type-checker APIs through.
type Program interface {
	// Diagnostics returns every diagnostic the compiler produced, in the
	// order the compiler yielded them (spec.md §5 ordering guarantee).
	Diagnostics() []Diagnostic
	// SourceFile looks up a compiled unit by stripped name.
	SourceFile(strippedName string) (SourceFile, bool)
	// Emitted returns the JS (and, if requested, source map) for every
	// non-declaration source file.
	Emitted() []EmittedFile
	// Checker returns the type-checker bound to this program.
	Checker() TypeChecker
}

// TypeChecker is the subset of the UL checker's API the remapper needs:
// symbol resolution, call-signature extraction, and type rendering.
type TypeChecker interface {
	// DefaultExportSymbol resolves a source file's default export symbol
	// via the module-exports facility (not textual scanning), per spec.md
	// §4.4. ok=false covers both "no default export" and "not a module".
	DefaultExportSymbol(file SourceFile) (sym Symbol, ok bool)
	// TypeOfSymbol returns the type of a resolved symbol's value.
	TypeOfSymbol(sym Symbol) Type
	// TypeToString renders a Type the way the compiler would print it in a
	// diagnostic message.
	TypeToString(t Type) string
	// EnclosingFunctionName walks a node's ancestors for the nearest
	// function-like node and returns its name, or "" if none is found or
	// it is anonymous (spec.md §4.4 User branch).
	EnclosingFunctionName(n Node) string
	// SmallestEnclosingNode returns the smallest AST node in file whose
	// span contains [start, start+length), used by the harness branch
	// (spec.md §4.4).
	SmallestEnclosingNode(file SourceFile, start, length int) Node
}
