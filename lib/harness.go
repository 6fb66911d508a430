package lib

import (
	"fmt"
	"strings"
)

// harnessTemplate is the synthesized execution harness (spec.md §4.1),
// written as UL text with textual substitution of caller-supplied type
// strings. The teacher's jsHarness const played the same "one templated
// blob of source text this package owns" role for its subprocess
// bootstrap; this is that same shape, repurposed for UL instead of the
// bootstrap protocol JS, since the subprocess protocol no longer exists
// once C7 runs in-process (see DESIGN.md).
const harnessTemplate = `
%s
import defaultExport from '%s';
declare global {
  const args: [%s];
  let result: %s;
}
result = defaultExport(...args);
`

// SynthesizeHarness builds the harness source text for one compile.
// auxStrippedNames lists every non-declaration auxiliary file's stripped
// name, in the order they should be imported for side effects — harness
// synthesis never reorders them (spec.md §8 "aux-import closure").
func SynthesizeHarness(expectedReturnType string, expectedArgTypes []string, auxStrippedNames []string) string {
	var imports strings.Builder
	for _, name := range auxStrippedNames {
		fmt.Fprintf(&imports, "import '%s';\n", name)
	}

	tuple := strings.Join(expectedArgTypes, ", ")
	returnType := expectedReturnType
	if returnType == "" {
		returnType = "any"
	}

	src := fmt.Sprintf(harnessTemplate,
		strings.TrimRight(imports.String(), "\n"),
		ReservedUserFileName,
		tuple,
		returnType,
	)
	return dedent(trimTemplate(src))
}
