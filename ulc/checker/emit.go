package checker

import (
	"strings"

	"github.com/ulrun/drc/ulc"
)

// emitJS renders a source file's JS output and source map. Type
// annotations and `declare global { ... }` blocks are erased in place —
// replaced with spaces, newlines preserved — rather than deleted, so every
// surviving character keeps the exact (line, column) position it had in
// the UL source. That makes the source map an identity map: line N, column
// 0 of the emission always traces back to line N, column 0 of the source.
// Real compilers emit far more elaborate maps once they reorder or inline
// code; this checker's subset never does either.
func emitJS(sf *sourceFile) (js string, sourceMap string) {
	spans := collectBlankSpans(sf.ast)
	js = blank(sf.text, spans)
	sourceMap = identitySourceMap(sf.strippedName+".js", sf.strippedName, strings.Count(js, "\n")+1)
	return js, sourceMap
}

type span struct{ start, end int }

func collectBlankSpans(n *node) []span {
	var spans []span
	var walk func(*node)
	walk = func(n *node) {
		if n == nil {
			return
		}
		if n.kind == ulc.KindGlobalDeclBlock {
			spans = append(spans, span{n.pos, n.end})
			return // nothing inside a declare block survives emission
		}
		if n.kind == ulc.KindTypeAnnotation {
			spans = append(spans, span{n.pos, n.end})
		}
		for _, k := range n.kids {
			walk(k)
		}
	}
	walk(n)
	return spans
}

// blank replaces each span with spaces (newlines inside a span are kept so
// line numbers do not shift), and additionally blanks a single preceding
// ':' for type-annotation spans so `name: Type` becomes `name      `.
func blank(src string, spans []span) string {
	buf := []byte(src)
	for _, sp := range spans {
		start := sp.start
		for start > 0 && (buf[start-1] == ' ' || buf[start-1] == '\t') {
			start--
		}
		if start > 0 && buf[start-1] == ':' {
			start--
		}
		for i := start; i < sp.end && i < len(buf); i++ {
			if buf[i] != '\n' {
				buf[i] = ' '
			}
		}
	}
	return string(buf)
}

// identitySourceMap builds a minimal, valid source-map-v3 document with one
// segment per line mapping (line, 0) in the generated file to (line, 0) in
// the named source.
func identitySourceMap(file, sourceName string, lineCount int) string {
	var mappings strings.Builder
	for i := 0; i < lineCount; i++ {
		if i > 0 {
			mappings.WriteByte(';')
		}
		if i == 0 {
			mappings.WriteString(vlqEncode([]int{0, 0, 0, 0}))
		} else {
			mappings.WriteString(vlqEncode([]int{0, 0, 1, 0}))
		}
	}
	var b strings.Builder
	b.WriteString(`{"version":3,"file":"`)
	b.WriteString(file)
	b.WriteString(`","sources":["`)
	b.WriteString(sourceName)
	b.WriteString(`"],"names":[],"mappings":"`)
	b.WriteString(mappings.String())
	b.WriteString(`"}`)
	return b.String()
}

// vlqEncode encodes one source-map mapping segment's relative fields
// (generatedColumnDelta, sourceIndexDelta, sourceLineDelta,
// sourceColumnDelta) as base64-VLQ.
func vlqEncode(fields []int) string {
	var b strings.Builder
	for _, f := range fields {
		b.WriteString(vlqEncodeOne(f))
	}
	return b.String()
}

const b64Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

func vlqEncodeOne(v int) string {
	var signBit int
	if v < 0 {
		signBit = 1
		v = -v
	}
	vlq := (v << 1) | signBit
	var b strings.Builder
	for {
		digit := vlq & 0x1f
		vlq >>= 5
		if vlq > 0 {
			digit |= 0x20
		}
		b.WriteByte(b64Alphabet[digit])
		if vlq == 0 {
			break
		}
	}
	return b.String()
}
