package wasm

import (
	"fmt"

	"tlog.app/go/tlog/tlwire"
)

type (
	// Module is a decoded module interface.
	// Local declarations and index spaces are kept separately:
	// index spaces list imported entities first, then local ones.
	Module struct {
		Version int

		Type     []FuncType
		Import   []Import
		Function []Index
		Table    []TableType
		Memory   []MemoryType
		Global   []Global
		Export   []Export

		Funcs    []Index
		Tables   []TableType
		Memories []MemoryType
		Globals  []GlobalType

		Custom []Custom

		Sections []byte
	}

	Index     int
	ValueType byte
	Code      []byte

	ResultType []ValueType

	FuncType struct {
		Params  ResultType
		Results ResultType
	}

	Limits struct {
		Min, Max uint32

		HasMax bool
		Shared bool
	}

	TableType struct {
		Elem   ValueType
		Limits Limits
	}

	MemoryType struct {
		Limits Limits
	}

	GlobalType struct {
		Type    ValueType
		Mutable bool
	}

	Global struct {
		GlobalType

		// Init is the raw initializer expression including the final End.
		Init Code
	}

	ExternKind byte

	// ExternDesc describes an importable or exportable entity.
	// Only the field matching Kind is meaningful.
	ExternDesc struct {
		Kind ExternKind

		Type   Index // KindFunc: type index
		Table  TableType
		Memory MemoryType
		Global GlobalType
	}

	Import struct {
		Module, Name string

		Desc ExternDesc
	}

	Export struct {
		Name string

		Index Index
		Desc  ExternDesc
	}

	Custom struct {
		Name string
		Data []byte
	}
)

// Value types.
const (
	I32 ValueType = 0x7f
	I64 ValueType = 0x7e
	F32 ValueType = 0x7d
	F64 ValueType = 0x7c

	V128 ValueType = 0x7b

	FuncRef   ValueType = 0x70
	ExternRef ValueType = 0x6f
)

const (
	FuncTypeHeader = 0x60

	LimitHasMax = 0x01
	LimitShared = 0x02
)

// Extern kinds.
const (
	KindFunc ExternKind = iota
	KindTable
	KindMemory
	KindGlobal

	// KindTag entries are skipped while decoding.
	KindTag
)

// Section ids.
const (
	CustomSection = iota
	TypeSection
	ImportSection
	FunctionSection
	TableSection
	MemorySection
	GlobalSection
	ExportSection
	StartSection
	ElementSection
	CodeSection
	DataSection
	DataCountSection
	TagSection

	sectionNext
)

func init() {
	if sectionNext != 14 {
		panic(sectionNext)
	}
}

var valueTypeNames = [256]string{
	I32:       "i32",
	I64:       "i64",
	F32:       "f32",
	F64:       "f64",
	V128:      "v128",
	FuncRef:   "funcref",
	ExternRef: "externref",
}

var kindNames = [...]string{
	KindFunc:   "function",
	KindTable:  "table",
	KindMemory: "memory",
	KindGlobal: "global",
	KindTag:    "tag",
}

var sectionNames = [...]string{
	CustomSection:    "custom",
	TypeSection:      "type",
	ImportSection:    "import",
	FunctionSection:  "function",
	TableSection:     "table",
	MemorySection:    "memory",
	GlobalSection:    "global",
	ExportSection:    "export",
	StartSection:     "start",
	ElementSection:   "element",
	CodeSection:      "code",
	DataSection:      "data",
	DataCountSection: "datacount",
	TagSection:       "tag",
}

func (t ValueType) String() string {
	if n := valueTypeNames[t]; n != "" {
		return n
	}

	return fmt.Sprintf("0x%02x", byte(t))
}

func (t ValueType) IsRef() bool {
	return t == FuncRef || t == ExternRef
}

func (k ExternKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}

	return fmt.Sprintf("kind(0x%02x)", byte(k))
}

// SectionName returns a human readable section name for the id.
func SectionName(id byte) string {
	if int(id) < len(sectionNames) {
		return sectionNames[id]
	}

	return fmt.Sprintf("section(0x%02x)", id)
}

func (c Code) TlogAppend(b []byte) []byte {
	var e tlwire.Encoder

	b = e.AppendSemantic(b, tlwire.Hex)

	return e.AppendBytes(b, c)
}

func (tp ResultType) TlogAppend(b []byte) []byte {
	var e tlwire.Encoder

	b = e.AppendArray(b, len(tp))

	for _, t := range tp {
		b = e.AppendString(b, t.String())
	}

	return b
}
