package lib

import (
	"context"
	"encoding/json"
)

// WrapCompiled adapts a Runner and a fixed set of compiled artifacts into a
// typed call, the way the teacher's WrapHost adapted a raw host Do() call
// into a typed function of (context, X) (Y, error): callers working against
// one already-compiled program get a concrete Result type back instead of
// the untyped any ExecuteFromArtifacts returns.
func WrapCompiled[Result any](runner *Runner, artifacts *CompilationArtifacts, run RunOptions) func(context.Context, []any) (Result, []UserCodeError, error) {
	return func(ctx context.Context, args []any) (Result, []UserCodeError, error) {
		var out Result
		value, diags, err := runner.ExecuteFromArtifacts(ctx, artifacts, args, run)
		if err != nil || diags != nil {
			return out, diags, err
		}
		out, err = convertResult[Result](value)
		if err != nil {
			return out, nil, hostErrorf(ErrModuleLinkFailed, "result did not match the expected shape: %v", err)
		}
		return out, nil, nil
	}
}

// convertResult round-trips a goja-exported value through JSON into the
// caller's declared Result type. JSON is the universal interchange shape
// this repo trusts between the sandboxed VM and Go callers, the same role
// it played in the teacher's subprocess RPC.
func convertResult[Result any](value any) (Result, error) {
	var out Result
	raw, err := json.Marshal(value)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, err
	}
	return out, nil
}
