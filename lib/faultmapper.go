package lib

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dop251/goja"
	"github.com/go-sourcemap/sourcemap"
)

// stackFrameLine matches one V8/goja-shaped stack trace line:
// "    at funcName (moduleName:line:col)" or, for anonymous frames,
// "    at moduleName:line:col". goja also writes the program counter in
// parentheses right after the column ("moduleName:line:col(pc)"); it is
// accepted and ignored.
var stackFrameLine = regexp.MustCompile(`(?m)^\s*at\s+(?:([^\s(]+)\s+\()?([^():\n]+):(\d+):(\d+)(?:\(\d+\))?\)?\s*$`)

type rawFrame struct {
	function string
	file     string
	line     int
	col      int
}

// mapRuntimeFault is C8 for a genuine thrown error (spec.md §4.8).
func mapRuntimeFault(err error, artifacts *CompilationArtifacts) UserCodeError {
	message, frames := parseGojaFault(err)
	return buildFault(message, frames, artifacts)
}

// mapTimeoutFault is the timeout case (spec.md §7): surfaced as a runtime
// user error whose location is the innermost user frame reachable through
// the source map — but a goja.InterruptedError carries no JS-level stack,
// so in practice this always falls back to (1,1).
func mapTimeoutFault(timeoutMs int, artifacts *CompilationArtifacts) UserCodeError {
	return buildFault(fmt.Sprintf("evaluation timed out after %dms", timeoutMs), nil, artifacts)
}

func parseGojaFault(err error) (string, []rawFrame) {
	exc, ok := err.(*goja.Exception)
	if !ok {
		return err.Error(), nil
	}
	message := exc.Error()
	var stackText string
	if obj, ok := exc.Value().(*goja.Object); ok {
		if s := obj.Get("stack"); s != nil {
			stackText = s.String()
		}
		if m := obj.Get("message"); m != nil {
			message = m.String()
		}
	}
	return message, parseStackFrames(stackText)
}

func parseStackFrames(stack string) []rawFrame {
	var frames []rawFrame
	for _, m := range stackFrameLine.FindAllStringSubmatch(stack, -1) {
		frames = append(frames, rawFrame{
			function: m[1],
			file:     strings.TrimSpace(m[2]),
			line:     atoiSafe(m[3]),
			col:      atoiSafe(m[4]),
		})
	}
	return frames
}

func atoiSafe(s string) int {
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return n
		}
		n = n*10 + int(c-'0')
	}
	return n
}

// buildFault drops frames not located in the emitted user file by logical
// name equality (not suffix — spec.md §9's redesign note), translates each
// retained frame's (line, column) through the source map, and drops any
// frame whose translation is null. location is the innermost retained
// frame's translated position, or (1,1) with an empty function name if
// none survive.
func buildFault(message string, frames []rawFrame, artifacts *CompilationArtifacts) UserCodeError {
	var consumer *sourcemap.Consumer
	if artifacts != nil && artifacts.UserSourceMap != "" {
		if c, err := sourcemap.Parse("", []byte(artifacts.UserSourceMap)); err == nil {
			consumer = c
		}
	}

	var stackLines []string
	location := ErrorLocation{Line: 1, Column: 1}
	haveLocation := false

	for _, f := range frames {
		if artifacts == nil || f.file != artifacts.UserFileName || consumer == nil {
			continue
		}
		_, _, origLine, origCol, ok := consumer.Source(f.line, f.col)
		if !ok {
			continue
		}
		// consumer.Source returns the Source-Map-v3 standard 0-based
		// column; every UserCodeError location and stack column in this
		// repo is 1-based (spec.md §8 "1 ≤ location.column"), so translate
		// here rather than push the +1 onto every caller.
		origCol++
		name := f.function
		if name == "" {
			name = "null"
		}
		stackLines = append(stackLines, fmt.Sprintf("at %s(%d:%d)", name, origLine, origCol))
		if !haveLocation {
			location = ErrorLocation{Line: origLine, Column: origCol}
			haveLocation = true
		}
	}

	return UserCodeError{
		Message:  "Error: " + message,
		Stack:    strings.Join(stackLines, "\n"),
		Location: location,
	}
}
