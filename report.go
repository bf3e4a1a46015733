package wasm

import (
	"fmt"
	"strconv"
	"strings"
)

// Imports describes every import in declaration order.
func Imports(m *Module) []string {
	r := make([]string, len(m.Import))

	for n, im := range m.Import {
		r[n] = fmt.Sprintf("%v %s.%s(%s)", im.Desc.Kind, im.Module, im.Name, Describe(m, im.Desc))
	}

	return r
}

// Exports describes every export in declaration order.
func Exports(m *Module) []string {
	r := make([]string, len(m.Export))

	for n, ex := range m.Export {
		r[n] = fmt.Sprintf("%v %s(%s)", ex.Desc.Kind, ex.Name, Describe(m, ex.Desc))
	}

	return r
}

// Describe returns type details of an extern.
// Functions list their parameter types only.
func Describe(m *Module, d ExternDesc) string {
	switch d.Kind {
	case KindFunc:
		if int(d.Type) >= len(m.Type) {
			return "?"
		}

		return joinTypes(m.Type[d.Type].Params)
	case KindTable:
		return fmt.Sprintf("%s, reftype = %v", describeLimits(d.Table.Limits), d.Table.Elem)
	case KindMemory:
		return describeLimits(d.Memory.Limits)
	case KindGlobal:
		return fmt.Sprintf("%v, mutable = %v", d.Global.Type, d.Global.Mutable)
	}

	return ""
}

func describeLimits(l Limits) string {
	max := "∞"

	if l.HasMax {
		max = strconv.FormatUint(uint64(l.Max), 10)
	}

	return fmt.Sprintf("min = %d, max = %s", l.Min, max)
}

func joinTypes(tp ResultType) string {
	var b strings.Builder

	for n, t := range tp {
		if n != 0 {
			b.WriteString(", ")
		}

		b.WriteString(t.String())
	}

	return b.String()
}
