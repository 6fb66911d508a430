package lib

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/dop251/goja"
)

// resultUnset is the sentinel `result` is initialized to before evaluation,
// distinguishing "the harness never reached its final assignment" from a
// legitimately falsy computed value.
var resultUnset = struct{ drcUnset bool }{true}

var (
	sideEffectImportLine = regexp.MustCompile(`^import\s+'([^']+)'\s*;\s*$`)
	defaultImportLine    = regexp.MustCompile(`^import\s+(\w+)\s+from\s+'([^']+)'\s*;\s*$`)
	exportDefaultFunc    = regexp.MustCompile(`^(\s*)export default function\s+(\w+)`)
	exportDefaultPrefix  = regexp.MustCompile(`^(\s*)export default\b`)
	exportNamedPrefix    = regexp.MustCompile(`^(\s*)export\s+`)
)

// toCommonJS rewrites one emitted file's ES-module import/export statements
// into the CommonJS shape this package's module registry links by
// (require/exports), line by line so every surviving line keeps its line
// number — the only position fidelity C8's identity source map preserves.
// Grounded on the teacher-adjacent sandbox's technique of stripping ES6
// export syntax because the embedded engine only runs ES5.1-shaped code
// (see DESIGN.md); extended here to also rewrite imports, since this
// package links multiple emitted modules rather than running one in
// isolation.
func toCommonJS(js string) string {
	lines := strings.Split(js, "\n")
	for i, line := range lines {
		trimmed := strings.TrimLeft(line, " \t")
		lead := line[:len(line)-len(trimmed)]

		switch {
		case sideEffectImportLine.MatchString(trimmed):
			m := sideEffectImportLine.FindStringSubmatch(trimmed)
			lines[i] = lead + fmt.Sprintf("require('%s');", m[1])
		case defaultImportLine.MatchString(trimmed):
			m := defaultImportLine.FindStringSubmatch(trimmed)
			lines[i] = lead + fmt.Sprintf("var %s = require('%s').default;", m[1], m[2])
		case exportDefaultFunc.MatchString(line):
			// A named default-exported function stays a hoisted declaration,
			// so code after it on the same line still parses.
			lines[i] = exportDefaultFunc.ReplaceAllString(line, "${1}exports.default = ${2}; function ${2}")
		case exportDefaultPrefix.MatchString(line):
			lines[i] = exportDefaultPrefix.ReplaceAllString(line, "${1}exports.default =")
		case exportNamedPrefix.MatchString(line):
			lines[i] = exportNamedPrefix.ReplaceAllString(line, "$1")
		}
	}
	return strings.Join(lines, "\n")
}

// moduleRegistry links emitted-JS modules by stripped specifier (spec.md
// §4.7 item 3): each module's source is wrapped in a function receiving
// `exports` and a `require` bound to this registry, evaluated lazily on
// first reference and memoized so re-imports observe the same exports
// instance.
type moduleRegistry struct {
	vm       *goja.Runtime
	sources  map[string]string
	compiled map[string]*goja.Object
}

func newModuleRegistry(vm *goja.Runtime, jsByName map[string]string) *moduleRegistry {
	return &moduleRegistry{vm: vm, sources: jsByName, compiled: map[string]*goja.Object{}}
}

func (r *moduleRegistry) require(specifier string) (*goja.Object, error) {
	if exports, ok := r.compiled[specifier]; ok {
		return exports, nil
	}
	src, ok := r.sources[specifier]
	if !ok {
		return nil, hostErrorf(ErrModuleLinkFailed, "no emitted module for specifier %q", specifier)
	}

	exports := r.vm.NewObject()
	r.compiled[specifier] = exports // set before evaluating: breaks cycles the same way CommonJS does

	// The wrapper's header shares the module's first line, so the module's
	// line numbers are the same inside the wrapper as in its own source.
	wrapper := fmt.Sprintf("(function(exports, require) {%s\n})", toCommonJS(src))
	// Compiled with the specifier as the program's name, not run via
	// RunString, so thrown-error stack frames carry this module's logical
	// name — C8 filters frames by that name, not by path suffix (spec.md §9).
	prog, err := goja.Compile(specifier, wrapper, false)
	if err != nil {
		return nil, err
	}
	fnVal, err := r.vm.RunProgram(prog)
	if err != nil {
		return nil, err
	}
	fn, ok := goja.AssertFunction(fnVal)
	if !ok {
		return nil, hostErrorf(ErrModuleLinkFailed, "emitted module %q did not produce a callable wrapper", specifier)
	}
	requireFn := r.vm.ToValue(func(call goja.FunctionCall) goja.Value {
		spec := call.Argument(0).String()
		target, err := r.require(spec)
		if err != nil {
			panic(r.vm.ToValue(err.Error()))
		}
		return target
	})
	if _, err := fn(goja.Undefined(), r.vm.ToValue(exports), requireFn); err != nil {
		return nil, err
	}
	return exports, nil
}

// Execute is C7 (spec.md §4.7): it instantiates one module per emitted-JS
// file, links by stripped specifier, evaluates the harness with the
// caller's wall-clock timeout, and returns the `result` binding on clean
// completion. A runtime fault is returned as a *UserCodeError (already
// mapped by C8); a nil *UserCodeError with a non-nil error means an
// embedder bug (spec.md §4.7, "must not catch ... rethrown as internal
// errors").
//
// args, result, and globals are always bound directly onto vm, the
// goja.Runtime that actually evaluates the emitted modules — Execute
// always constructs its own vm, so binding through a caller-supplied
// evalCtx wrapping some other runtime would never be visible to evaluated
// code. evalCtx, when supplied, mirrors the args/result bindings so a
// caller can still observe them through its own handle, but it is never
// the runtime evaluated code actually runs against.
func Execute(artifacts *CompilationArtifacts, args []any, timeoutMs int, globals map[string]any, evalCtx EvaluationContext) (any, *UserCodeError, error) {
	vm := goja.New()

	if err := vm.Set("args", args); err != nil {
		return nil, nil, hostErrorf(ErrModuleLinkFailed, "could not bind args: %v", err)
	}
	if err := vm.Set("result", resultUnset); err != nil {
		return nil, nil, hostErrorf(ErrModuleLinkFailed, "could not bind result: %v", err)
	}
	if evalCtx != nil {
		if err := evalCtx.Set("args", args); err != nil {
			return nil, nil, hostErrorf(ErrModuleLinkFailed, "could not bind args: %v", err)
		}
		if err := evalCtx.Set("result", resultUnset); err != nil {
			return nil, nil, hostErrorf(ErrModuleLinkFailed, "could not bind result: %v", err)
		}
	}
	for name, value := range globals {
		if err := vm.Set(name, value); err != nil {
			return nil, nil, hostErrorf(ErrModuleLinkFailed, "could not bind global %q: %v", name, err)
		}
	}

	registry := newModuleRegistry(vm, artifacts.JSByName)

	var timer *time.Timer
	if timeoutMs > 0 {
		timer = time.AfterFunc(time.Duration(timeoutMs)*time.Millisecond, func() {
			vm.Interrupt("evaluation timed out")
		})
		defer timer.Stop()
	}

	_, err := registry.require(ReservedHarnessFileName)
	if err != nil {
		if _, ok := err.(*goja.InterruptedError); ok {
			fault := mapTimeoutFault(timeoutMs, artifacts)
			return nil, &fault, nil
		}
		if hostErr, ok := err.(*HostError); ok {
			return nil, nil, hostErr
		}
		fault := mapRuntimeFault(err, artifacts)
		return nil, &fault, nil
	}

	var value any
	if v := vm.Get("result"); v != nil {
		value = v.Export()
	}
	if evalCtx != nil {
		if err := evalCtx.Set("result", value); err != nil {
			return nil, nil, hostErrorf(ErrModuleLinkFailed, "could not bind result: %v", err)
		}
	}
	return value, nil, nil
}
