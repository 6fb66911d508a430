package lib

import (
	"context"

	"github.com/google/uuid"

	"github.com/ulrun/drc/ulc"
	"github.com/ulrun/drc/ulc/checker"
)

// Runner is the diagnostic remapping core's entry point: the three
// operations spec.md §6 names (preProcess, executeUserCode,
// executeFromArtifacts) are its methods. It never throws on user-caused
// conditions (spec.md §7); every throw is a *HostError.
type Runner struct {
	opts *Options
}

// New constructs a Runner. A nil Options is equivalent to &Options{}: no
// cache, default message mappers, no logging.
func New(opts *Options) *Runner {
	if opts == nil {
		opts = &Options{}
	}
	return &Runner{opts: opts}
}

// PreProcess is preProcess(userSource, expectedReturnType, expectedArgTypes,
// auxSources) -> (artifacts | diagnostics) (spec.md §6). It synthesizes the
// harness, compiles the combined program, and remaps every diagnostic —
// returning either a clean set of artifacts or the full, user-facing
// diagnostic list. Never both.
func (r *Runner) PreProcess(ctx context.Context, userSource, expectedReturnType string, expectedArgTypes []string, auxSources []VirtualFile) (*CompilationArtifacts, []UserCodeError, error) {
	ctx = ctxOrBackground(ctx)
	requestID := uuid.NewString()

	for _, f := range auxSources {
		if f.StrippedName() == ReservedUserFileName || f.StrippedName() == ReservedHarnessFileName {
			return nil, nil, hostErrorf(ErrReservedNameCollision, "auxiliary file %q collides with a reserved name", f.LogicalName)
		}
	}

	auxTexts := make([]string, len(auxSources))
	for i, f := range auxSources {
		auxTexts[i] = f.Text
	}
	key := CacheKey(userSource, expectedReturnType, expectedArgTypes, auxTexts)

	if r.opts.Cache != nil {
		if cached, err := r.opts.Cache.Get(key); err == nil && cached != nil {
			r.opts.logf(false, "[%s] cache hit", requestID)
			return cached.Artifacts, cached.Diagnostics, nil
		}
	}

	var sideEffectNames []string
	for _, f := range auxSources {
		if f.Kind != KindULDeclaration {
			sideEffectNames = append(sideEffectNames, f.StrippedName())
		}
	}
	harnessSrc := SynthesizeHarness(expectedReturnType, expectedArgTypes, sideEffectNames)

	prog := AssembleProgram(userSource, auxSources, harnessSrc)

	harnessFile, ok := prog.SourceFile(ReservedHarnessFileName)
	if !ok {
		return nil, nil, hostErrorf(ErrUnmappedHarnessNode, "compiled program has no harness source file")
	}
	userFile, ok := prog.SourceFile(ReservedUserFileName)
	if !ok {
		return nil, nil, hostErrorf(ErrUnmappedHarnessNode, "compiled program has no user source file")
	}
	anchors, ok := FindHarnessAnchors(harnessFile)
	if !ok {
		return nil, nil, hostErrorf(ErrUnmappedHarnessNode, "synthesized harness did not have the expected anchor shape")
	}

	mappers := mergedMappers(r.opts.TypeErrorCodeMessageMappers)
	diags, err := RemapDiagnostics(prog, anchors, userFile, harnessFile, expectedReturnType, expectedArgTypes, checker.BenignFilelessCodes, mappers)
	if err != nil {
		return nil, nil, err
	}

	if len(diags) > 0 {
		if r.opts.Cache != nil {
			_ = r.opts.Cache.Put(key, &CacheResult{Diagnostics: diags})
		}
		return nil, diags, nil
	}

	artifacts := buildArtifacts(prog)
	if r.opts.Cache != nil {
		_ = r.opts.Cache.Put(key, &CacheResult{Artifacts: artifacts})
	}
	return artifacts, nil, nil
}

// buildArtifacts collects CompilationArtifacts from a clean compile
// (spec.md §3): jsByName holds exactly one entry per non-declaration
// source, and userSourceMap is the user file's own source map.
func buildArtifacts(prog ulc.Program) *CompilationArtifacts {
	artifacts := &CompilationArtifacts{
		JSByName:     map[string]string{},
		UserFileName: ReservedUserFileName,
	}
	for _, emitted := range prog.Emitted() {
		artifacts.JSByName[emitted.StrippedName] = emitted.JS
		if emitted.StrippedName == ReservedUserFileName {
			artifacts.UserSourceMap = emitted.SourceMap
		}
	}
	return artifacts
}

// ExecuteUserCode is executeUserCode(userSource, args, expectedReturnType,
// expectedArgTypes, timeoutMs?, auxSources?, evalContext?) -> (value |
// diagnostics) (spec.md §6): compile (or reuse a cached compile), then
// evaluate in the sandbox.
func (r *Runner) ExecuteUserCode(ctx context.Context, userSource string, args []any, expectedReturnType string, expectedArgTypes []string, auxSources []VirtualFile, run RunOptions) (any, []UserCodeError, error) {
	artifacts, diags, err := r.PreProcess(ctx, userSource, expectedReturnType, expectedArgTypes, auxSources)
	if err != nil {
		return nil, nil, err
	}
	if diags != nil {
		return nil, diags, nil
	}
	return r.ExecuteFromArtifacts(ctx, artifacts, args, run)
}

// ExecuteFromArtifacts is executeFromArtifacts(artifacts, args, evalContext?)
// -> (value | diagnostics) (spec.md §6): skips compilation entirely.
func (r *Runner) ExecuteFromArtifacts(ctx context.Context, artifacts *CompilationArtifacts, args []any, run RunOptions) (any, []UserCodeError, error) {
	ctx = ctxOrBackground(ctx)
	requestID := uuid.NewString()
	r.opts.logf(false, "[%s] evaluating", requestID)

	value, fault, err := Execute(artifacts, args, run.TimeoutMs, run.Globals, run.EvalContext)
	if err != nil {
		r.opts.logf(true, "[%s] host error: %v", requestID, err)
		return nil, nil, err
	}
	if fault != nil {
		return nil, []UserCodeError{*fault}, nil
	}
	return value, nil, nil
}
