package wasm

import "tlog.app/go/errors"

func (d *LowDecoder) ValueType(b []byte, st int) (tp ValueType, i int, err error) {
	x, i, err := d.Byte(b, st)
	if err != nil {
		return 0, st, err
	}

	tp = ValueType(x)

	if valueTypeNames[tp] == "" {
		return 0, st, posErr(st, UnknownValueTypeError{Type: x})
	}

	return tp, i, nil
}

func (d *LowDecoder) RefType(b []byte, st int) (tp ValueType, i int, err error) {
	tp, i, err = d.ValueType(b, st)
	if err != nil {
		return 0, st, err
	}

	if !tp.IsRef() {
		return 0, st, posErr(st, UnknownValueTypeError{Type: byte(tp)})
	}

	return tp, i, nil
}

func (d *LowDecoder) ResultType(b []byte, st int) (tp ResultType, i int, err error) {
	l, i, err := d.VecLen(b, st)
	if err != nil {
		return nil, st, err
	}

	tp = make(ResultType, l)

	for n := range tp {
		tp[n], i, err = d.ValueType(b, i)
		if err != nil {
			return nil, st, err
		}
	}

	return tp, i, nil
}

func (d *LowDecoder) FuncType(b []byte, st int) (fn FuncType, i int, err error) {
	form, i, err := d.Byte(b, st)
	if err != nil {
		return fn, st, err
	}

	if form != FuncTypeHeader {
		return fn, st, posErr(st, ErrFuncTypeForm)
	}

	fn.Params, i, err = d.ResultType(b, i)
	if err != nil {
		return fn, st, errors.Wrap(err, "func params")
	}

	fn.Results, i, err = d.ResultType(b, i)
	if err != nil {
		return fn, st, errors.Wrap(err, "func results")
	}

	return fn, i, nil
}

func (d *LowDecoder) Limits(b []byte, st int) (l Limits, i int, err error) {
	flags, i, err := d.Byte(b, st)
	if err != nil {
		return l, st, err
	}

	if flags&^(LimitHasMax|LimitShared) != 0 {
		return l, st, posErr(st, ErrLimits)
	}

	l.HasMax = flags&LimitHasMax != 0
	l.Shared = flags&LimitShared != 0

	minpos := i

	l.Min, i, err = d.Uint32(b, i)
	if err != nil {
		return l, st, errors.Wrap(err, "min")
	}

	if !l.HasMax {
		return l, i, nil
	}

	l.Max, i, err = d.Uint32(b, i)
	if err != nil {
		return l, st, errors.Wrap(err, "max")
	}

	if l.Max < l.Min {
		return l, st, posErr(minpos, ErrLimits)
	}

	return l, i, nil
}

func (d *LowDecoder) TableType(b []byte, st int) (t TableType, i int, err error) {
	t.Elem, i, err = d.RefType(b, st)
	if err != nil {
		return t, st, err
	}

	t.Limits, i, err = d.Limits(b, i)
	if err != nil {
		return t, st, err
	}

	return t, i, nil
}

func (d *LowDecoder) MemoryType(b []byte, st int) (t MemoryType, i int, err error) {
	t.Limits, i, err = d.Limits(b, st)
	if err != nil {
		return t, st, err
	}

	return t, i, nil
}

func (d *LowDecoder) GlobalType(b []byte, st int) (t GlobalType, i int, err error) {
	t.Type, i, err = d.ValueType(b, st)
	if err != nil {
		return t, st, err
	}

	mut, i, err := d.Byte(b, i)
	if err != nil {
		return t, st, err
	}

	switch mut {
	case 0:
	case 1:
		t.Mutable = true
	default:
		return t, st, posErr(i-1, ErrMutability)
	}

	return t, i, nil
}
