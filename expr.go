package wasm

import (
	"fmt"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"
)

type (
	// ExprDecoder skips constant expressions without evaluating them.
	ExprDecoder struct {
		LowDecoder
	}

	Opcode byte
)

// Opcodes allowed in constant expressions.
const (
	End = 0x0b

	GlobalGet = 0x23

	I32Const = 0x41
	I64Const = 0x42
	F32Const = 0x43
	F64Const = 0x44

	I32Add = 0x6a
	I32Sub = 0x6b
	I32Mul = 0x6c
	I64Add = 0x7c
	I64Sub = 0x7d
	I64Mul = 0x7e

	RefNull = 0xd0
	RefFunc = 0xd2

	FDExt = 0xfd
)

// FD ext opcodes
const (
	FDV128Const = 0x0c
)

// Expr skips a constant expression starting at st.
// It returns the expression bytes including the final End.
func (d *ExprDecoder) Expr(b []byte, st int) (code Code, i int, err error) {
	i = st

	for {
		opst := i

		var x byte

		x, i, err = d.Byte(b, i)
		if err != nil {
			return nil, st, err
		}

		op := Opcode(x)

		switch op {
		case End:
		case GlobalGet, RefFunc:
			_, i, err = d.Uint32(b, i)
		case I32Const:
			_, i, err = d.Int32(b, i)
		case I64Const:
			_, i, err = d.Int64(b, i)
		case F32Const:
			_, i, err = d.Bytes(b, i, 4)
		case F64Const:
			_, i, err = d.Bytes(b, i, 8)
		case RefNull:
			_, i, err = d.Byte(b, i)
		case I32Add, I32Sub, I32Mul, I64Add, I64Sub, I64Mul:
		case FDExt:
			i, err = d.fdExt(b, i)
		default:
			return nil, st, posErr(opst, UnsupportedOpcodeError{Opcode: op})
		}

		if err != nil {
			return nil, st, errors.Wrap(err, "%v", op)
		}

		tlog.V("expr").Printw("opcode", "i", tlog.NextAsHex, opst, "op", op, "code", tlog.NextAsHex, b[opst:i])

		if op == End {
			return b[st:i], i, nil
		}
	}
}

func (d *ExprDecoder) fdExt(b []byte, st int) (i int, err error) {
	op, i, err := d.Uint32(b, st)
	if err != nil {
		return st, err
	}

	if op != FDV128Const {
		return st, posErr(st, UnsupportedOpcodeError{Opcode: FDExt, Args: b[st:i]})
	}

	_, i, err = d.Bytes(b, i, 16)
	if err != nil {
		return st, err
	}

	return i, nil
}

func (op Opcode) String() string {
	if n := opNames[op]; n != "" {
		return n
	}

	return fmt.Sprintf("%02x", int(op))
}

var opNames = [...]string{
	End: "End",

	GlobalGet: "GlobalGet",

	I32Const: "I32Const",
	I64Const: "I64Const",
	F32Const: "F32Const",
	F64Const: "F64Const",

	I32Add: "I32Add",
	I32Sub: "I32Sub",
	I32Mul: "I32Mul",
	I64Add: "I64Add",
	I64Sub: "I64Sub",
	I64Mul: "I64Mul",

	RefNull: "RefNull",
	RefFunc: "RefFunc",

	FDExt: "FDExt",

	255: "",
}
