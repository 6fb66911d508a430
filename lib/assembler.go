package lib

import (
	"github.com/ulrun/drc/ulc"
	"github.com/ulrun/drc/ulc/checker"
)

// virtualHost is the file-system-free CompilerHost (spec.md §4.2): it
// serves exactly the virtual files C2 assembled, by stripped name, and
// nothing else — there is no real-filesystem fallback in this repo because
// the UL subset this checker implements has no standard library to fall
// through to.
type virtualHost struct {
	files map[string]VirtualFile
	names []string
}

func newVirtualHost() *virtualHost {
	return &virtualHost{files: map[string]VirtualFile{}}
}

func (h *virtualHost) add(f VirtualFile) {
	stripped := f.StrippedName()
	if _, exists := h.files[stripped]; !exists {
		h.names = append(h.names, stripped)
	}
	h.files[stripped] = f
}

func (h *virtualHost) ReadVirtualFile(strippedName string) (string, bool, bool) {
	f, ok := h.files[strippedName]
	if !ok {
		return "", false, false
	}
	return f.Text, f.Kind == KindULDeclaration, true
}

func (h *virtualHost) VirtualFileNames() []string { return h.names }

// AssembleProgram builds the virtual file set (user + harness +
// auxiliaries) and drives compilation with source maps enabled (spec.md
// §4.2 C2). The harness is always compiled last in iteration order so the
// aux-import closure (spec.md §8) sees every auxiliary already registered
// by the time the harness's side-effect imports resolve.
func AssembleProgram(userSource string, aux []VirtualFile, harnessSource string) ulc.Program {
	host := newVirtualHost()
	host.add(VirtualFile{LogicalName: ReservedUserFileName, Text: userSource, Kind: KindULSource})
	for _, f := range aux {
		host.add(f)
	}
	host.add(VirtualFile{LogicalName: ReservedHarnessFileName, Text: harnessSource, Kind: KindULSource})

	return checker.Compile(host, ulc.CompileOptions{SourceMap: true})
}
