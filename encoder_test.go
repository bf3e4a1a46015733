package wasm

import "math"

type (
	LowEncoder struct{}
)

func (e *LowEncoder) Int(b []byte, v int) []byte {
	return e.Uint64(b, uint64(v))
}

func (e *LowEncoder) Uint64(b []byte, v uint64) []byte {
	for {
		x := byte(v) & 0x7f
		v >>= 7

		if v != 0 {
			x |= 0x80
		}

		b = append(b, x)

		if x&0x80 == 0 {
			break
		}
	}

	return b
}

func (e *LowEncoder) Int64(b []byte, v int64) []byte {
	for {
		x := byte(v) & 0x7f
		s := byte(v) & 0x40
		v >>= 7

		if s == 0 && v != 0 || s != 0 && v != -1 {
			x |= 0x80
		}

		b = append(b, x)

		if x&0x80 == 0 {
			break
		}
	}

	return b
}

func (e *LowEncoder) Float64(b []byte, v float64) []byte {
	x := math.Float64bits(v)

	return append(b, byte(x), byte(x>>8), byte(x>>16), byte(x>>24), byte(x>>32), byte(x>>40), byte(x>>48), byte(x>>56))
}

func (e *LowEncoder) Name(b []byte, v string) []byte {
	b = e.Int(b, len(v))
	b = append(b, v...)

	return b
}

func (e *LowEncoder) ResultType(b []byte, tp ...ValueType) []byte {
	b = e.Int(b, len(tp))

	for _, t := range tp {
		b = append(b, byte(t))
	}

	return b
}

func (e *LowEncoder) FuncType(b []byte, params, results ResultType) []byte {
	b = append(b, FuncTypeHeader)
	b = e.ResultType(b, params...)
	b = e.ResultType(b, results...)

	return b
}

func (e *LowEncoder) Limits(b []byte, l Limits) []byte {
	var flags byte

	if l.HasMax {
		flags |= LimitHasMax
	}

	if l.Shared {
		flags |= LimitShared
	}

	b = append(b, flags)
	b = e.Int(b, int(l.Min))

	if l.HasMax {
		b = e.Int(b, int(l.Max))
	}

	return b
}

func (e *LowEncoder) TableType(b []byte, t TableType) []byte {
	b = append(b, byte(t.Elem))
	return e.Limits(b, t.Limits)
}

func (e *LowEncoder) GlobalType(b []byte, t GlobalType) []byte {
	var mut byte
	if t.Mutable {
		mut = 1
	}

	return append(b, byte(t.Type), mut)
}

func (e *LowEncoder) Section(b []byte, id byte, data []byte) []byte {
	b = append(b, id)
	b = e.Int(b, len(data))
	b = append(b, data...)

	return b
}

// Vec prefixes concatenated items with their count.
func (e *LowEncoder) Vec(b []byte, items ...[]byte) []byte {
	b = e.Int(b, len(items))

	for _, it := range items {
		b = append(b, it...)
	}

	return b
}

func (e *LowEncoder) Header(b []byte) []byte {
	b = append(b, Magic...)
	return append(b, 1, 0, 0, 0)
}

// Module builds a module from encoded sections.
func (e *LowEncoder) Module(sections ...[]byte) []byte {
	b := e.Header(nil)

	for _, s := range sections {
		b = append(b, s...)
	}

	return b
}

func (e *LowEncoder) ImportFunc(mod, name string, tp int) []byte {
	b := e.Name(nil, mod)
	b = e.Name(b, name)
	b = append(b, byte(KindFunc))

	return e.Int(b, tp)
}

func (e *LowEncoder) Export(name string, kind ExternKind, idx int) []byte {
	b := e.Name(nil, name)
	b = append(b, byte(kind))

	return e.Int(b, idx)
}

// interfaceModule imports env.log(i32) and exports memory mem(min = 1, max = 2).
func interfaceModule() []byte {
	var e LowEncoder

	return e.Module(
		e.Section(nil, TypeSection, e.Vec(nil, e.FuncType(nil, ResultType{I32}, nil))),
		e.Section(nil, ImportSection, e.Vec(nil, e.ImportFunc("env", "log", 0))),
		e.Section(nil, MemorySection, e.Vec(nil, e.Limits(nil, Limits{Min: 1, Max: 2, HasMax: true}))),
		e.Section(nil, ExportSection, e.Vec(nil, e.Export("mem", KindMemory, 0))),
	)
}
