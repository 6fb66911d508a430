package lib

import (
	"path"
	"strings"
)

// stripExt removes a logical file name's extension, the unit of identity
// for virtual files and import specifiers throughout the core (spec.md
// §3). The teacher's WriteTempJS served the analogous "give this code an
// identity Node can import" role for an on-disk subprocess; this repo's
// sandbox runs everything in-process, so identity is purely this string
// transform rather than a temp file on disk.
func stripExt(logicalName string) string {
	ext := path.Ext(logicalName)
	if ext == "" {
		return logicalName
	}
	return logicalName[:len(logicalName)-len(ext)]
}

// dedent removes the common leading whitespace from every non-blank line
// of s. Used when splicing multi-line caller-supplied text into the
// synthesized harness template so indentation doesn't leak caller
// formatting into diagnostic spans. Kept as a free function per spec.md §9
// ("the core must not mutate shared prototypes of primitive types; use
// free functions threaded through the components that need them").
func dedent(s string) string {
	lines := strings.Split(s, "\n")
	min := -1
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		indent := len(l) - len(strings.TrimLeft(l, " \t"))
		if min == -1 || indent < min {
			min = indent
		}
	}
	if min <= 0 {
		return s
	}
	for i, l := range lines {
		if len(l) >= min {
			lines[i] = l[min:]
		}
	}
	return strings.Join(lines, "\n")
}

// trimTemplate trims a single leading and trailing newline from a raw Go
// backtick template literal, so template authors can write
// `\nline1\nline2\n` for readability without the extra blank lines
// surviving into emitted UL source.
func trimTemplate(s string) string {
	s = strings.TrimPrefix(s, "\n")
	s = strings.TrimSuffix(s, "\n")
	return s
}
