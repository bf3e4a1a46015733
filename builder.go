package wasm

import (
	"tlog.app/go/errors"
)

// builder accumulates decoded sections and assembles index spaces.
type builder struct {
	m Module

	seen uint32

	// positions of type indexes: function imports, then Function section entries
	typeRefs  []int
	localRefs []int

	exportPos []int
}

func singleton(id byte) bool {
	return id >= TypeSection && id <= ExportSection
}

func (b *builder) section(id byte, pos int) error {
	b.m.Sections = append(b.m.Sections, id)

	if !singleton(id) {
		return nil
	}

	if b.seen&(1<<id) != 0 {
		return errors.Wrap(posErr(pos, ErrDuplicateSection), "%v section", SectionName(id))
	}

	b.seen |= 1 << id

	return nil
}

func (b *builder) finish() (err error) {
	m := &b.m

	m.Funcs = m.Funcs[:0]
	m.Tables = m.Tables[:0]
	m.Memories = m.Memories[:0]
	m.Globals = m.Globals[:0]

	for _, im := range m.Import {
		switch im.Desc.Kind {
		case KindFunc:
			m.Funcs = append(m.Funcs, im.Desc.Type)
		case KindTable:
			m.Tables = append(m.Tables, im.Desc.Table)
		case KindMemory:
			m.Memories = append(m.Memories, im.Desc.Memory)
		case KindGlobal:
			m.Globals = append(m.Globals, im.Desc.Global)
		}
	}

	m.Funcs = append(m.Funcs, m.Function...)
	m.Tables = append(m.Tables, m.Table...)
	m.Memories = append(m.Memories, m.Memory...)

	for _, g := range m.Global {
		m.Globals = append(m.Globals, g.GlobalType)
	}

	refs := append(b.typeRefs, b.localRefs...)

	for n, tp := range m.Funcs {
		if int(tp) >= len(m.Type) {
			return errors.Wrap(posErr(refs[n], ErrIndexOutOfRange), "func %d: type %d of %d", n, tp, len(m.Type))
		}
	}

	for n := range m.Export {
		ex := &m.Export[n]

		err = b.resolve(ex)
		if err != nil {
			return errors.Wrap(posErr(b.exportPos[n], err), "export %d %q", n, ex.Name)
		}
	}

	return nil
}

func (b *builder) resolve(ex *Export) error {
	m := &b.m
	x := int(ex.Index)

	var size int

	switch ex.Desc.Kind {
	case KindFunc:
		size = len(m.Funcs)
		if x < size {
			ex.Desc.Type = m.Funcs[x]
		}
	case KindTable:
		size = len(m.Tables)
		if x < size {
			ex.Desc.Table = m.Tables[x]
		}
	case KindMemory:
		size = len(m.Memories)
		if x < size {
			ex.Desc.Memory = m.Memories[x]
		}
	case KindGlobal:
		size = len(m.Globals)
		if x < size {
			ex.Desc.Global = m.Globals[x]
		}
	}

	if x >= size {
		return errors.Wrap(ErrIndexOutOfRange, "%v %d of %d", ex.Desc.Kind, x, size)
	}

	return nil
}
