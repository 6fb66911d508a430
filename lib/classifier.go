package lib

import "github.com/ulrun/drc/ulc"

// diagOrigin is where a raw diagnostic should route to (spec.md §4.3).
type diagOrigin int

const (
	originUser diagOrigin = iota
	originHarness
	originBenign
	originHostBug
)

// ClassifyDiagnostic partitions one raw diagnostic by origin file: harness
// diagnostics route to the remapper's harness branch, every other
// file-rooted diagnostic — user file or auxiliary alike — routes to the
// user branch (its line/column-plus-message-normalization handling is
// correct for both), and fileless diagnostics are host bugs unless their
// code is on the benign allow-list.
func ClassifyDiagnostic(d ulc.Diagnostic, harnessStrippedName string, benignCodes map[int]bool) diagOrigin {
	if !d.HasFile() {
		if benignCodes[d.Code] {
			return originBenign
		}
		return originHostBug
	}
	if d.File.StrippedName() == harnessStrippedName {
		return originHarness
	}
	return originUser
}
