package lib

import (
	"strings"

	"github.com/ulrun/drc/ulc"
)

// codeModuleResolutionHint is the "Did you mean to set 'moduleResolution'…?"
// suggestion code the default table strips (spec.md §4.5 example entry).
const codeModuleResolutionHint = 2792

// defaultMessageMappers returns the built-in per-code rewriter table. Callers
// extend or override it via Options.TypeErrorCodeMessageMappers.
func defaultMessageMappers() map[int]MessageMapper {
	return map[int]MessageMapper{
		codeModuleResolutionHint: stripModuleResolutionHint,
	}
}

func stripModuleResolutionHint(text string) (string, bool) {
	idx := strings.Index(text, " Did you mean")
	if idx < 0 {
		return text, true
	}
	return text[:idx], true
}

// mergedMappers layers caller-supplied mappers over the defaults, so a
// caller can override a single code without losing the rest of the table.
func mergedMappers(overrides map[int]MessageMapper) map[int]MessageMapper {
	table := defaultMessageMappers()
	for code, m := range overrides {
		table[code] = m
	}
	return table
}

// mapMessage renders a diagnostic's message text through the per-code
// mapper table (spec.md §4.5 "mapMessage(d)"), recursing through chained
// sub-messages in depth-first order and indenting each level by two
// spaces. A mapper registered for a code that returns ok=false signals the
// code was claimed but its message shape wasn't understood — surfaced as a
// host error, per spec.md §4.5, rather than silently passed through.
func mapMessage(mt ulc.MessageText, topCode int, table map[int]MessageMapper) (string, error) {
	if !mt.IsChain() {
		return applyMapper(mt.Text, topCode, table)
	}
	return renderChain(*mt.Chain, table, 0)
}

func renderChain(c ulc.Chain, table map[int]MessageMapper, depth int) (string, error) {
	text, err := applyMapper(c.Text, c.Code, table)
	if err != nil {
		return "", err
	}
	lines := []string{strings.Repeat("  ", depth) + text}
	for _, next := range c.Next {
		sub, err := renderChain(next, table, depth+1)
		if err != nil {
			return "", err
		}
		lines = append(lines, sub)
	}
	return strings.Join(lines, "\n"), nil
}

func applyMapper(text string, code int, table map[int]MessageMapper) (string, error) {
	m, ok := table[code]
	if !ok {
		return text, nil
	}
	rewritten, ok := m(text)
	if !ok {
		return "", hostErrorf(ErrUnmappedMessage, "code TS%d claimed but its message shape was not recognized: %q", code, text)
	}
	return rewritten, nil
}
