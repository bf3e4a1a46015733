package wasm

import (
	stderrors "errors"
	"fmt"
	"io"
)

type (
	// PosError marks the byte offset in the module where decoding failed.
	PosError struct {
		Pos int
		Err error
	}

	UnknownValueTypeError struct {
		Type byte
	}

	UnsupportedOpcodeError struct {
		Opcode Opcode
		Args   []byte
	}
)

var (
	ErrUnexpectedEOF      = io.ErrUnexpectedEOF
	ErrOverflow           = stderrors.New("integer overflow")
	ErrMalformedInt       = stderrors.New("malformed integer encoding")
	ErrMagic              = stderrors.New("magic mismatch")
	ErrUnsupportedVersion = stderrors.New("unsupported binary format version")
	ErrSizeMismatch       = stderrors.New("size mismatch")
	ErrUnknownValueType   = stderrors.New("unknown value type")
	ErrFuncTypeForm       = stderrors.New("invalid function type form")
	ErrIndexOutOfRange    = stderrors.New("index out of range")
	ErrDuplicateSection   = stderrors.New("duplicate section")
	ErrTooLarge           = stderrors.New("vector length exceeds input")

	ErrLimits            = stderrors.New("invalid limits")
	ErrMutability        = stderrors.New("invalid mutability")
	ErrExternKind        = stderrors.New("unsupported extern kind")
	ErrInvalidUTF8       = stderrors.New("invalid utf-8 name")
	ErrUnsupportedOpcode = stderrors.New("unsupported opcode")
)

func posErr(pos int, err error) error {
	return &PosError{Pos: pos, Err: err}
}

// ErrorPos returns the offset of the outermost positioned error in the chain.
// Positions are attached once, where the error is detected.
func ErrorPos(err error) (int, bool) {
	var pe *PosError

	if !stderrors.As(err, &pe) {
		return 0, false
	}

	return pe.Pos, true
}

func (e *PosError) Error() string {
	return fmt.Sprintf("at pos 0x%x: %v", e.Pos, e.Err)
}

func (e *PosError) Unwrap() error { return e.Err }

func (e UnknownValueTypeError) Error() string {
	return fmt.Sprintf("unknown value type: 0x%02x", e.Type)
}

func (e UnknownValueTypeError) Is(target error) bool { return target == ErrUnknownValueType }

func (e UnsupportedOpcodeError) Error() string {
	return fmt.Sprintf("unsupported opcode: %v [% 02x]", e.Opcode, e.Args)
}

func (e UnsupportedOpcodeError) Is(target error) bool { return target == ErrUnsupportedOpcode }
