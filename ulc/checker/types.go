package checker

import (
	"strings"

	"github.com/ulrun/drc/ulc"
)

// typeExpr is the checker's internal type representation: primitives,
// arrays, tuples, function signatures, and an error sentinel. It implements
// ulc.Type directly so the remapper can call Signature() on whatever the
// checker hands it without an adapter layer.
type typeExpr struct {
	kind typeKind

	nameHolder string // for typePrimitive
	elem       *typeExpr   // for array
	elts       []*typeExpr // for tuple
	sig        *ulc.Signature
}

type typeKind int

const (
	typeAny typeKind = iota
	typeVoid
	typePrimitive // string, number, boolean, or any other bare identifier type
	typeArray
	typeTuple
	typeFunction
	typeError // unresolved / could not be determined
)

var (
	tAny     = &typeExpr{kind: typeAny}
	tVoid    = &typeExpr{kind: typeVoid}
	tError   = &typeExpr{kind: typeError}
	tString  = namedType("string")
	tNumber  = namedType("number")
	tBoolean = namedType("boolean")
)

func namedType(name string) *typeExpr {
	return &typeExpr{kind: typePrimitive, nameHolder: name}
}

func (t *typeExpr) Signature() (ulc.Signature, bool) {
	if t.kind != typeFunction || t.sig == nil {
		return ulc.Signature{}, false
	}
	return *t.sig, true
}

// typeToString renders a type the way the checker's diagnostics do: bare
// name, T[] for arrays, [T1, T2] for tuples, "(p1: T1, ...) => R" for
// functions.
func typeToString(t *typeExpr) string {
	if t == nil {
		return "any"
	}
	switch t.kind {
	case typeAny:
		return "any"
	case typeVoid:
		return "void"
	case typeError:
		return "error"
	case typePrimitive:
		return t.nameHolder
	case typeArray:
		return typeToString(t.elem) + "[]"
	case typeTuple:
		parts := make([]string, len(t.elts))
		for i, e := range t.elts {
			parts[i] = typeToString(e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case typeFunction:
		if t.sig == nil {
			return "Function"
		}
		parts := make([]string, len(t.sig.Parameters))
		for i, p := range t.sig.Parameters {
			parts[i] = p.Name + ": " + typeToStringULC(p.Type)
		}
		return "(" + strings.Join(parts, ", ") + ") => " + typeToStringULC(t.sig.ReturnType)
	}
	return "any"
}

func typeToStringULC(t ulc.Type) string {
	te, ok := t.(*typeExpr)
	if !ok {
		return "any"
	}
	return typeToString(te)
}

// isAssignable reports whether a value of type src may be assigned to a
// location declared as dst. This checker's subset treats types nominally:
// identical rendering, or dst is any.
func isAssignable(src, dst *typeExpr) bool {
	if dst == nil || dst.kind == typeAny {
		return true
	}
	if src == nil || src.kind == typeAny {
		return true
	}
	if src.kind == typeError || dst.kind == typeError {
		// Errors are already reported elsewhere; don't cascade.
		return true
	}
	return typeToString(src) == typeToString(dst)
}
