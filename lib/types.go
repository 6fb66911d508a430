// Package lib is the diagnostic remapping core: it synthesizes an
// execution harness around untrusted UL source, type-checks the combined
// program, rewrites every diagnostic to point at the user's own source,
// and — once the program is clean — evaluates it in a sandboxed VM and
// maps any runtime fault back through source maps.
package lib

import (
	"context"
	"fmt"
)

// ReservedUserFileName is the sentinel stripped name the harness imports
// the user's default export from. Caller-supplied file names must not
// collide with it (spec.md §6).
const ReservedUserFileName = "__user_file"

// ReservedHarnessFileName is the stripped name of the synthesized harness
// module itself.
const ReservedHarnessFileName = "__execution_harness"

// VirtualFile is one file in the compile's in-memory file set (spec.md §3).
type VirtualFile struct {
	LogicalName string
	Text        string
	Kind        VirtualFileKind
}

// StrippedName returns LogicalName with its extension removed — the unit
// of file identity throughout the core.
func (f VirtualFile) StrippedName() string { return stripExt(f.LogicalName) }

type VirtualFileKind int

const (
	KindULSource VirtualFileKind = iota
	KindULDeclaration
)

// CompilationArtifacts is everything preserved from a compile after the
// cache stores it: the emitted JS for every non-declaration source, and
// the user file's source map (spec.md §3).
type CompilationArtifacts struct {
	JSByName      map[string]string
	UserSourceMap string
	UserFileName  string // the JSByName key holding the user's emitted JS; always ReservedUserFileName
}

// UserCodeError is a diagnostic in the serialized, caller-facing shape
// spec.md §6 specifies.
type UserCodeError struct {
	Message  string        `json:"message"`
	Stack    string        `json:"stack"`
	Location ErrorLocation `json:"location"`
}

type ErrorLocation struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// MessageMapper rewrites a diagnostic's message text for a given compiler
// code. Returning ok=false signals "claimed but not understood" (spec.md
// §4.5), which the message mapper surfaces as a HostError.
type MessageMapper func(text string) (rewritten string, ok bool)

// EvaluationContext is an optional observer of the args/result bindings
// C7 exchanges with the harness (spec.md §2 C7, §6). Execute always
// evaluates against a goja.Runtime it owns, so a caller-supplied
// EvaluationContext is mirrored into alongside that runtime, never used in
// its place — it lets a caller watch the exchange through its own handle
// without being able to disconnect it from what evaluated code actually runs
// against.
type EvaluationContext interface {
	Set(name string, value any) error
	Get(name string) (any, error)
}

// Options configures a Runner. It mirrors the teacher's Options shape (a
// struct of knobs plus an optional Log callback) rather than a
// functional-options API, matching this repo's ambient style.
type Options struct {
	Cache Cache

	// TypeErrorCodeMessageMappers lets a caller override or add to the
	// default per-code message rewriters (spec.md §6).
	TypeErrorCodeMessageMappers map[int]MessageMapper

	// Log receives the runner's internal messages (cache hits, the start of
	// each evaluation, host errors raised during evaluation), each tagged
	// with a per-call request id, the way the teacher's Options.Log
	// received Node's stdout/stderr; nil disables logging.
	Log func(msg string, isError bool)
}

// RunOptions configures one ExecuteUserCode call.
type RunOptions struct {
	TimeoutMs int // 0 means no wall-clock budget

	// Globals binds additional ambient names into the evaluation context
	// before the harness runs (spec.md §6, "Context is a mapping from
	// name to ambient value") — e.g. a function an auxiliary declaration
	// file declares ambiently and the user's default export calls
	// directly, with no import required.
	Globals map[string]any

	EvalContext EvaluationContext
}

func (o *Options) logf(isError bool, format string, args ...any) {
	if o == nil || o.Log == nil {
		return
	}
	o.Log(fmt.Sprintf(format, args...), isError)
}

// ctxOrBackground lets internal helpers accept a possibly-nil context the
// way the teacher's nodeHost.Do does for its outer context.
func ctxOrBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
