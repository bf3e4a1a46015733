package wasm

import (
	"bytes"
	"encoding/binary"
	stderrors "errors"
	"fmt"
	"unicode/utf8"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"
)

type (
	// Decoder decodes module interfaces.
	// It keeps the state of the last decode call so it must not be shared between goroutines.
	Decoder struct {
		ExprDecoder

		state State
	}

	// LowDecoder decodes primitives.
	// All the methods take the buffer and the start position
	// and return the position after the value.
	// On error the start position is returned, so the caller never advances past a failed read.
	LowDecoder struct {
		// AllowPadded accepts non-minimal LEB128 encodings.
		AllowPadded bool
	}

	State int
)

// Decoder states.
const (
	ExpectHeader State = iota
	ExpectSection
	Done
	Failed
)

var (
	Magic            = []byte("\000asm")
	SupportedVersion = 1
)

// Decode decodes the module with the default Decoder.
func Decode(b []byte) (*Module, error) {
	var d Decoder
	m := &Module{}

	err := d.Module(b, m)
	if err != nil {
		return nil, err
	}

	return m, nil
}

// Module decodes b into m.
// m is only written if decoding succeeds.
func (d *Decoder) Module(b []byte, m *Module) (err error) {
	var bld builder
	i := 0

	d.state = ExpectHeader

	defer func() {
		if err != nil {
			d.state = Failed
		}
	}()

	for {
		switch d.state {
		case ExpectHeader:
			bld.m.Version, i, err = d.Header(b, i)
			if err != nil {
				return errors.Wrap(err, "header")
			}

			d.state = ExpectSection
		case ExpectSection:
			if i == len(b) {
				d.state = Done
				continue
			}

			i, err = d.section(b, i, &bld)
			if err != nil {
				return err
			}
		case Done:
			err = bld.finish()
			if err != nil {
				return errors.Wrap(err, "resolve")
			}

			*m = bld.m

			return nil
		default:
			return errors.New("unexpected decoder state: %v", d.state)
		}
	}
}

// State returns the state the last Module call ended in.
func (d *Decoder) State() State { return d.state }

func (s State) String() string {
	switch s {
	case ExpectHeader:
		return "expect_header"
	case ExpectSection:
		return "expect_section"
	case Done:
		return "done"
	case Failed:
		return "failed"
	}

	return fmt.Sprintf("State(%d)", int(s))
}

func (d *Decoder) Header(b []byte, st int) (ver, i int, err error) {
	i = st

	n := min(len(Magic), len(b)-i)
	if !bytes.Equal(b[i:i+n], Magic[:n]) {
		return 0, st, posErr(i, ErrMagic)
	}

	if n < len(Magic) {
		return 0, st, posErr(len(b), ErrUnexpectedEOF)
	}

	i += len(Magic)

	if i+4 > len(b) {
		return 0, st, posErr(len(b), ErrUnexpectedEOF)
	}

	ver = int(binary.LittleEndian.Uint32(b[i:]))

	if ver != SupportedVersion {
		return 0, st, posErr(i, ErrUnsupportedVersion)
	}

	return ver, i + 4, nil
}

func (d *Decoder) section(b []byte, st int, bld *builder) (i int, err error) {
	id, i, err := d.Byte(b, st)
	if err != nil {
		return st, errors.Wrap(err, "section id")
	}

	size, i, err := d.Int(b, i)
	if err != nil {
		return st, errors.Wrap(err, "section size")
	}

	sub, err := d.Sub(b, i, size)
	if err != nil {
		return st, errors.Wrap(err, "%v section", SectionName(id))
	}

	end := len(sub)

	tlog.V("section").Printw("section", "id", id, "name", SectionName(id), "pos", tlog.NextAsHex, st, "size", size)

	err = bld.section(id, st)
	if err != nil {
		return st, err
	}

	switch id {
	case CustomSection:
		i = d.CustomSection(sub, i, &bld.m)
	case TypeSection:
		i, err = d.TypeSection(sub, i, &bld.m)
	case ImportSection:
		i, err = d.ImportSection(sub, i, bld)
	case FunctionSection:
		i, err = d.FunctionSection(sub, i, bld)
	case TableSection:
		i, err = d.TableSection(sub, i, &bld.m)
	case MemorySection:
		i, err = d.MemorySection(sub, i, &bld.m)
	case GlobalSection:
		i, err = d.GlobalSection(sub, i, &bld.m)
	case ExportSection:
		i, err = d.ExportSection(sub, i, bld)
	default:
		tlog.V("section").Printw("skip section", "id", id, "size", size)

		i = end
	}

	if stderrors.Is(err, ErrUnexpectedEOF) {
		// the section is bounded, so EOF means the declared size was too small
		err = posErr(end, ErrSizeMismatch)
	}

	if err != nil {
		return st, errors.Wrap(err, "%v section", SectionName(id))
	}

	if i != end {
		return st, errors.Wrap(posErr(i, ErrSizeMismatch), "%v section", SectionName(id))
	}

	return end, nil
}

// CustomSection records the custom section name and payload.
// Custom sections carry no interface information, so malformed names are not an error.
func (d *Decoder) CustomSection(b []byte, st int, m *Module) (i int) {
	c := Custom{}

	name, i, err := d.Name(b, st)
	if err == nil {
		c.Name = name
	} else {
		i = st
	}

	c.Data = append([]byte{}, b[i:]...)

	m.Custom = append(m.Custom, c)

	return len(b)
}

func (d *Decoder) TypeSection(b []byte, st int, m *Module) (i int, err error) {
	l, i, err := d.VecLen(b, st)
	if err != nil {
		return st, errors.Wrap(err, "vector length")
	}

	m.Type = make([]FuncType, l)

	for n := range m.Type {
		m.Type[n], i, err = d.FuncType(b, i)
		if err != nil {
			return st, errors.Wrap(err, "func %d", n)
		}
	}

	return i, nil
}

func (d *Decoder) ImportSection(b []byte, st int, bld *builder) (i int, err error) {
	l, i, err := d.VecLen(b, st)
	if err != nil {
		return st, errors.Wrap(err, "vector length")
	}

	bld.m.Import = make([]Import, 0, l)

	var (
		im   Import
		tpos int
	)

	for n := 0; n < l; n++ {
		im, tpos, i, err = d.Import(b, i)
		if err != nil {
			return st, errors.Wrap(err, "import %d", n)
		}

		switch im.Desc.Kind {
		case KindTag:
			tlog.V("section").Printw("skip tag import", "mod", im.Module, "name", im.Name)
			continue
		case KindFunc:
			bld.typeRefs = append(bld.typeRefs, tpos)
		}

		bld.m.Import = append(bld.m.Import, im)
	}

	return i, nil
}

// Import decodes an import entry.
// tpos is the position of the type index for function imports.
// Tag imports are read through and returned with KindTag only.
func (d *Decoder) Import(b []byte, st int) (im Import, tpos, i int, err error) {
	im.Module, i, err = d.Name(b, st)
	if err != nil {
		return im, 0, st, errors.Wrap(err, "module")
	}

	im.Name, i, err = d.Name(b, i)
	if err != nil {
		return im, 0, st, errors.Wrap(err, "name")
	}

	tp, i, err := d.Byte(b, i)
	if err != nil {
		return im, 0, st, errors.Wrap(err, "kind")
	}

	im.Desc.Kind = ExternKind(tp)
	tpos = i

	switch im.Desc.Kind {
	case KindFunc:
		var x int

		x, i, err = d.Int(b, i)
		im.Desc.Type = Index(x)
	case KindTable:
		im.Desc.Table, i, err = d.TableType(b, i)
	case KindMemory:
		im.Desc.Memory, i, err = d.MemoryType(b, i)
	case KindGlobal:
		im.Desc.Global, i, err = d.GlobalType(b, i)
	case KindTag:
		i, err = d.tagType(b, i)
	default:
		return im, 0, st, posErr(i-1, errors.Wrap(ErrExternKind, "0x%02x", tp))
	}

	if err != nil {
		return im, 0, st, errors.Wrap(err, "%v", im.Desc.Kind)
	}

	return im, tpos, i, nil
}

func (d *Decoder) FunctionSection(b []byte, st int, bld *builder) (i int, err error) {
	l, i, err := d.VecLen(b, st)
	if err != nil {
		return st, errors.Wrap(err, "vector length")
	}

	bld.m.Function = make([]Index, l)

	var x int

	for n := range bld.m.Function {
		bld.localRefs = append(bld.localRefs, i)

		x, i, err = d.Int(b, i)
		if err != nil {
			return st, errors.Wrap(err, "func %d", n)
		}

		bld.m.Function[n] = Index(x)
	}

	return i, nil
}

func (d *Decoder) TableSection(b []byte, st int, m *Module) (i int, err error) {
	l, i, err := d.VecLen(b, st)
	if err != nil {
		return st, errors.Wrap(err, "vector length")
	}

	m.Table = make([]TableType, l)

	for n := range m.Table {
		m.Table[n], i, err = d.TableType(b, i)
		if err != nil {
			return st, errors.Wrap(err, "table %d", n)
		}
	}

	return i, nil
}

func (d *Decoder) MemorySection(b []byte, st int, m *Module) (i int, err error) {
	l, i, err := d.VecLen(b, st)
	if err != nil {
		return st, errors.Wrap(err, "vector length")
	}

	m.Memory = make([]MemoryType, l)

	for n := range m.Memory {
		m.Memory[n], i, err = d.MemoryType(b, i)
		if err != nil {
			return st, errors.Wrap(err, "memory %d", n)
		}
	}

	return i, nil
}

func (d *Decoder) GlobalSection(b []byte, st int, m *Module) (i int, err error) {
	l, i, err := d.VecLen(b, st)
	if err != nil {
		return st, errors.Wrap(err, "vector length")
	}

	m.Global = make([]Global, l)

	var code Code

	for n := range m.Global {
		m.Global[n].GlobalType, i, err = d.GlobalType(b, i)
		if err != nil {
			return st, errors.Wrap(err, "global type %d", n)
		}

		code, i, err = d.Expr(b, i)
		if err != nil {
			return st, errors.Wrap(err, "global init %d", n)
		}

		m.Global[n].Init = append(Code{}, code...)
	}

	return i, nil
}

func (d *Decoder) ExportSection(b []byte, st int, bld *builder) (i int, err error) {
	l, i, err := d.VecLen(b, st)
	if err != nil {
		return st, errors.Wrap(err, "vector length")
	}

	bld.m.Export = make([]Export, 0, l)
	bld.exportPos = make([]int, 0, l)

	var ex Export

	for n := 0; n < l; n++ {
		pos := i

		ex, i, err = d.Export(b, i)
		if err != nil {
			return st, errors.Wrap(err, "export %d", n)
		}

		if ex.Desc.Kind == KindTag {
			tlog.V("section").Printw("skip tag export", "name", ex.Name, "index", ex.Index)
			continue
		}

		bld.m.Export = append(bld.m.Export, ex)
		bld.exportPos = append(bld.exportPos, pos)
	}

	return i, nil
}

// tagType skips a tag descriptor: attribute byte and type index.
func (d *Decoder) tagType(b []byte, st int) (i int, err error) {
	_, i, err = d.Byte(b, st)
	if err != nil {
		return st, errors.Wrap(err, "attribute")
	}

	_, i, err = d.Uint32(b, i)
	if err != nil {
		return st, errors.Wrap(err, "type")
	}

	return i, nil
}

// Export decodes an export entry.
// Desc only gets Kind set, the rest is resolved once all index spaces are known.
func (d *Decoder) Export(b []byte, st int) (ex Export, i int, err error) {
	ex.Name, i, err = d.Name(b, st)
	if err != nil {
		return ex, st, errors.Wrap(err, "name")
	}

	tp, i, err := d.Byte(b, i)
	if err != nil {
		return ex, st, errors.Wrap(err, "kind")
	}

	if ExternKind(tp) > KindTag {
		return ex, st, posErr(i-1, errors.Wrap(ErrExternKind, "0x%02x", tp))
	}

	ex.Desc.Kind = ExternKind(tp)

	x, i, err := d.Int(b, i)
	if err != nil {
		return ex, st, errors.Wrap(err, "index")
	}

	ex.Index = Index(x)

	return ex, i, nil
}

func (d *LowDecoder) Byte(b []byte, st int) (r byte, i int, err error) {
	if st >= len(b) {
		return 0, st, posErr(st, ErrUnexpectedEOF)
	}

	return b[st], st + 1, nil
}

func (d *LowDecoder) Peek(b []byte, st int) (r byte, err error) {
	r, _, err = d.Byte(b, st)
	return
}

func (d *LowDecoder) Bytes(b []byte, st, n int) (r []byte, i int, err error) {
	if n < 0 || n > len(b)-st {
		return nil, st, posErr(len(b), ErrUnexpectedEOF)
	}

	return b[st : st+n], st + n, nil
}

// Sub bounds b to n bytes starting at st.
// Offsets into the returned buffer stay the same as in b.
func (d *LowDecoder) Sub(b []byte, st, n int) (sub []byte, err error) {
	if n < 0 || n > len(b)-st {
		return nil, posErr(len(b), ErrUnexpectedEOF)
	}

	return b[:st+n], nil
}

// VecLen decodes a vector length and checks the input can hold that many elements.
// Every element takes at least one byte.
func (d *LowDecoder) VecLen(b []byte, st int) (l, i int, err error) {
	l, i, err = d.Int(b, st)
	if err != nil {
		return 0, st, err
	}

	if l > len(b)-i {
		return 0, st, posErr(st, ErrTooLarge)
	}

	return l, i, nil
}

func (d *LowDecoder) Name(b []byte, st int) (v string, i int, err error) {
	l, i, err := d.Int(b, st)
	if err != nil {
		return "", st, err
	}

	r, i, err := d.Bytes(b, i, l)
	if err != nil {
		return "", st, err
	}

	if !utf8.Valid(r) {
		return "", st, posErr(st, ErrInvalidUTF8)
	}

	return string(r), i, nil
}
