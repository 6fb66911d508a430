package checker

// Diagnostic codes this checker produces. These mirror the codes spec.md
// §4.4/§8 names so the rest of the DRC can dispatch on them without caring
// which concrete compiler produced them.
const (
	codeNoDefaultExport  = 1192 // module exists but has no default export
	codeNotAModule       = 2306 // file has no import/export statements at all
	codeNotCallable      = 2349 // resolved default export has no call signature
	codeTypeMismatch     = 2322 // assignment target's type doesn't accept the value's type
	codeArgumentMismatch = 2554 // call argument count/types don't match the signature
	codeCannotFindModule = 2307 // import specifier resolves to no virtual file

	// CodeModuleResolutionHint is the "benign, expected" suppression-marker
	// code spec.md §4.2/§4.5 calls out by example: a stray "did you mean to
	// set 'moduleResolution'?" tail the message mapper strips. This checker
	// never emits it itself (there is no module-resolution-strategy
	// dimension in this subset); it is named here purely so the message
	// mapper's default table (lib/messages.go) has a concrete code to
	// document against.
	CodeModuleResolutionHint = 2792
)

// BenignFilelessCodes lists diagnostic codes a backend may report without a
// File attached that are not host bugs (spec.md §4.2 Failure mode). This
// checker never produces a fileless diagnostic, so the list is currently
// empty of anything it emits; it exists so ulc.CompilerHost implementers
// swapped in later have a documented place to extend it.
var BenignFilelessCodes = map[int]bool{}
