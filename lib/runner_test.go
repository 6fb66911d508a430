package lib_test

import (
	"context"
	"strings"
	"testing"

	"github.com/ulrun/drc/lib"
)

// scenario 1 (spec.md §8): a default export whose inferred return type
// disagrees with the caller-supplied expected return type.
func TestExecuteUserCode_ReturnTypeMismatch(t *testing.T) {
	runner := lib.New(nil)

	userSource := `export default function F(s: string): string { return s + ' world'; }`
	_, diags, err := runner.ExecuteUserCode(context.Background(), userSource, []any{"hello"}, "number", []string{"string"}, nil, lib.RunOptions{})
	if err != nil {
		t.Fatalf("unexpected host error: %v", err)
	}
	if len(diags) != 1 {
		t.Fatalf("expected exactly one diagnostic, got %d: %+v", len(diags), diags)
	}
	d := diags[0]
	if !strings.HasPrefix(d.Message, "TypeError: TS2322 Incorrect return type.") {
		t.Fatalf("unexpected message: %q", d.Message)
	}
	if !strings.Contains(d.Message, "Expected: 'number'") || !strings.Contains(d.Message, "Actual: 'string'") {
		t.Fatalf("message missing expected/actual types: %q", d.Message)
	}
	if d.Stack != "at F(1:55)" {
		t.Fatalf("unexpected stack: %q", d.Stack)
	}
	if d.Location != (lib.ErrorLocation{Line: 1, Column: 55}) {
		t.Fatalf("unexpected location: %+v", d.Location)
	}
}

// scenario 2: argument tuple arity mismatch.
func TestExecuteUserCode_ArgumentArityMismatch(t *testing.T) {
	runner := lib.New(nil)

	userSource := `export default function F(s: string, n: number): string { return s; }`
	_, diags, err := runner.ExecuteUserCode(context.Background(), userSource, []any{"hello"}, "string", []string{"string"}, nil, lib.RunOptions{})
	if err != nil {
		t.Fatalf("unexpected host error: %v", err)
	}
	if len(diags) != 1 {
		t.Fatalf("expected exactly one diagnostic, got %d: %+v", len(diags), diags)
	}
	d := diags[0]
	if !strings.HasPrefix(d.Message, "TypeError: TS2554 Incorrect argument type.") {
		t.Fatalf("unexpected message: %q", d.Message)
	}
	if !strings.Contains(d.Message, "Expected: '[string]'") || !strings.Contains(d.Message, "Actual: '[string, number]'") {
		t.Fatalf("message missing expected/actual tuples: %q", d.Message)
	}
	if d.Stack != "at F(1:39)" {
		t.Fatalf("unexpected stack: %q", d.Stack)
	}
	if d.Location != (lib.ErrorLocation{Line: 1, Column: 39}) {
		t.Fatalf("unexpected location: %+v", d.Location)
	}
}

// scenario 3: no default export at all.
func TestExecuteUserCode_MissingDefaultExport(t *testing.T) {
	runner := lib.New(nil)

	userSource := `export function F(s: string): string { return s; }`
	_, diags, err := runner.ExecuteUserCode(context.Background(), userSource, []any{"hello"}, "string", []string{"string"}, nil, lib.RunOptions{})
	if err != nil {
		t.Fatalf("unexpected host error: %v", err)
	}
	if len(diags) != 1 {
		t.Fatalf("expected exactly one diagnostic, got %d: %+v", len(diags), diags)
	}
	want := `TypeError: TS1192 No default export. Expected a default export function with the signature: "(...args: [string]) => string".`
	if diags[0].Message != want {
		t.Fatalf("message = %q, want %q", diags[0].Message, want)
	}
	if diags[0].Location != (lib.ErrorLocation{Line: 1, Column: 1}) {
		t.Fatalf("location = %+v, want (1,1)", diags[0].Location)
	}
}

// scenario 4: the default export resolves, but isn't callable.
func TestExecuteUserCode_DefaultExportNotCallable(t *testing.T) {
	runner := lib.New(nil)

	userSource := `const h = 'hi'; export default h;`
	_, diags, err := runner.ExecuteUserCode(context.Background(), userSource, []any{}, "string", []string{}, nil, lib.RunOptions{})
	if err != nil {
		t.Fatalf("unexpected host error: %v", err)
	}
	if len(diags) != 1 {
		t.Fatalf("expected exactly one diagnostic, got %d: %+v", len(diags), diags)
	}
	if !strings.HasPrefix(diags[0].Message, "TypeError: TS2349 Default export is not a valid function.") {
		t.Fatalf("unexpected message: %q", diags[0].Message)
	}
}

// scenario 5: a runtime throw from a helper function, mapped back through
// the source map with both frames translated into the user's own source.
func TestExecuteUserCode_RuntimeThrowFromHelper(t *testing.T) {
	runner := lib.New(nil)

	userSource := `export default function F(s:string):string{sub();return s;} function sub(){throw new Error('X');}`
	_, diags, err := runner.ExecuteUserCode(context.Background(), userSource, []any{"hello"}, "string", []string{"string"}, nil, lib.RunOptions{})
	if err != nil {
		t.Fatalf("unexpected host error: %v", err)
	}
	if len(diags) != 1 {
		t.Fatalf("expected exactly one diagnostic, got %d: %+v", len(diags), diags)
	}
	d := diags[0]
	if d.Message != "Error: X" {
		t.Fatalf("message = %q, want %q", d.Message, "Error: X")
	}
	lines := strings.Split(d.Stack, "\n")
	if len(lines) != 2 {
		t.Fatalf("expected two stack frames, got %d: %q", len(lines), d.Stack)
	}
	if !strings.HasPrefix(lines[0], "at sub(") {
		t.Fatalf("innermost frame should name sub, got %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "at F(") {
		t.Fatalf("outer frame should name F, got %q", lines[1])
	}
	if d.Location.Line < 1 || d.Location.Column < 1 {
		t.Fatalf("location must be 1-based, got %+v", d.Location)
	}
	if !strings.HasSuffix(lines[0], ":1:1)") {
		t.Fatalf("innermost frame column must be 1-based, got %q", lines[0])
	}
}

// scenario 6: a clean compile where the user's default export calls a
// name bound by the caller's evaluation context rather than declared
// anywhere in the UL source (a plain identifier reference inside a
// function body is never type-checked, so it needs no declaration).
func TestExecuteUserCode_SuccessWithAmbientGlobal(t *testing.T) {
	runner := lib.New(nil)

	userSource := `export default function F(s: string): string { return g(s); }`

	value, diags, err := runner.ExecuteUserCode(context.Background(), userSource, []any{"x"}, "string", []string{"string"}, nil, lib.RunOptions{
		Globals: map[string]any{
			"g": func(s string) string { return s + s },
		},
	})
	if err != nil {
		t.Fatalf("unexpected host error: %v", err)
	}
	if diags != nil {
		t.Fatalf("expected a clean compile, got diagnostics: %+v", diags)
	}
	if value != "xx" {
		t.Fatalf("value = %v, want %q", value, "xx")
	}
}

// Aux-import closure (spec.md §8): an auxiliary module's default export is
// callable from the user file exactly as if it had been evaluated first.
func TestExecuteUserCode_AuxImportClosure(t *testing.T) {
	runner := lib.New(nil)

	aux := []lib.VirtualFile{{
		LogicalName: "helper.ts",
		Text:        "export default function add1(n: number): number { return n + 1; }",
		Kind:        lib.KindULSource,
	}}
	userSource := "import add1 from 'helper';\nexport default function F(n: number): number { return add1(n); }"

	value, diags, err := runner.ExecuteUserCode(context.Background(), userSource, []any{float64(5)}, "number", []string{"number"}, aux, lib.RunOptions{})
	if err != nil {
		t.Fatalf("unexpected host error: %v", err)
	}
	if diags != nil {
		t.Fatalf("expected a clean compile, got diagnostics: %+v", diags)
	}
	if value != int64(6) && value != float64(6) {
		t.Fatalf("value = %v (%T), want 6", value, value)
	}
}

// Cache idempotence (spec.md §8): two identical calls against a shared
// cache produce equal diagnostic lists without recompiling.
func TestExecuteUserCode_CacheIdempotence(t *testing.T) {
	cache := lib.NewMemoryCache()
	runner := lib.New(&lib.Options{Cache: cache})

	userSource := `export function F(s: string): string { return s; }`
	_, first, err := runner.ExecuteUserCode(context.Background(), userSource, []any{"hello"}, "string", []string{"string"}, nil, lib.RunOptions{})
	if err != nil {
		t.Fatalf("unexpected host error: %v", err)
	}
	_, second, err := runner.ExecuteUserCode(context.Background(), userSource, []any{"hello"}, "string", []string{"string"}, nil, lib.RunOptions{})
	if err != nil {
		t.Fatalf("unexpected host error: %v", err)
	}
	if len(first) != 1 || len(second) != 1 {
		t.Fatalf("expected exactly one diagnostic per call, got %d and %d", len(first), len(second))
	}
	if first[0] != second[0] {
		t.Fatalf("cached diagnostic differs from the original: %+v vs %+v", first[0], second[0])
	}
}

// Reserved-name collisions are a host error, never a diagnostic.
func TestExecuteUserCode_ReservedNameCollisionIsHostError(t *testing.T) {
	runner := lib.New(nil)

	aux := []lib.VirtualFile{{LogicalName: "__user_file.ts", Text: "export const x = 1;", Kind: lib.KindULSource}}
	_, _, err := runner.ExecuteUserCode(context.Background(), "export default function F(){}", nil, "void", nil, aux, lib.RunOptions{})
	if err == nil {
		t.Fatalf("expected a host error for the reserved-name collision")
	}
}
