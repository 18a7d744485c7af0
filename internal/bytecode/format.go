package bytecode

// Binary Format Layout (the ".snc" compiled-module format written by
// `-c` and read back by the VM loader):
//
//   [Header]
//     Magic (4 bytes): "SNYA"
//     Version (4 bytes): format version, currently 1
//
//   [Constants Section]
//     Count (4 bytes)
//     For each constant: Type (1 byte) + type-specific payload
//       0x01 Number  (8 bytes, float64 bits)
//       0x02 String  (4-byte length + UTF-8 bytes)
//       0x03 Bool    (1 byte)
//       0x04 Null    (0 bytes)
//
//   [Instructions Section]
//     Count (4 bytes)
//     For each instruction: Opcode (1 byte) + Operand (4 bytes, signed)
//
// This mirrors the teacher's .sg framing (magic + version header,
// length-prefixed constant pool, flat instruction array) with the
// constant type tags narrowed to what Var actually represents and the
// nested ClassDefinition/MethodDefinition constant kinds dropped, since
// classes and functions are compiled as separate top-level entries
// rather than constant-pool payloads in this VM's module format.

import (
	"encoding/binary"
	"errors"
	"io"
	"math"
)

const (
	magic        = "SNYA"
	formatVersion = uint32(1)
)

const (
	constNumber = 0x01
	constString = 0x02
	constBool   = 0x03
	constNull   = 0x04
)

// Chunk is the serializable unit: one function's instructions plus its
// constant pool, encoded as Var-shaped tags (number/string/bool/null —
// object constants other than strings are never compile-time constants
// in this language, matching the specification's constant pool scope).
type Chunk struct {
	Instructions []Instruction
	Constants    []ChunkConst
}

// ChunkConst is a disk-encodable constant pool entry.
type ChunkConst struct {
	Tag  byte
	Num  float64
	Str  string
	Bool bool
}

// Encode writes chunk to w in the .snc binary format.
func Encode(w io.Writer, chunk *Chunk) error {
	if err := writeString4(w, magic); err != nil {
		return err
	}
	if err := writeU32(w, formatVersion); err != nil {
		return err
	}
	if err := writeU32(w, uint32(len(chunk.Constants))); err != nil {
		return err
	}
	for _, c := range chunk.Constants {
		if err := encodeConst(w, c); err != nil {
			return err
		}
	}
	if err := writeU32(w, uint32(len(chunk.Instructions))); err != nil {
		return err
	}
	for _, ins := range chunk.Instructions {
		if _, err := w.Write([]byte{byte(ins.Op)}); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, int32(ins.Operand)); err != nil {
			return err
		}
	}
	return nil
}

func encodeConst(w io.Writer, c ChunkConst) error {
	if _, err := w.Write([]byte{c.Tag}); err != nil {
		return err
	}
	switch c.Tag {
	case constNumber:
		return binary.Write(w, binary.LittleEndian, math.Float64bits(c.Num))
	case constString:
		if err := writeU32(w, uint32(len(c.Str))); err != nil {
			return err
		}
		_, err := w.Write([]byte(c.Str))
		return err
	case constBool:
		b := byte(0)
		if c.Bool {
			b = 1
		}
		_, err := w.Write([]byte{b})
		return err
	case constNull:
		return nil
	default:
		return errors.New("bytecode: unknown constant tag")
	}
}

// Decode reads a chunk previously written by Encode.
func Decode(r io.Reader) (*Chunk, error) {
	magicBuf := make([]byte, 4)
	if _, err := io.ReadFull(r, magicBuf); err != nil {
		return nil, err
	}
	if string(magicBuf) != magic {
		return nil, errors.New("bytecode: bad magic number")
	}
	version, err := readU32(r)
	if err != nil {
		return nil, err
	}
	if version != formatVersion {
		return nil, errors.New("bytecode: unsupported format version")
	}

	constCount, err := readU32(r)
	if err != nil {
		return nil, err
	}
	consts := make([]ChunkConst, constCount)
	for i := range consts {
		c, err := decodeConst(r)
		if err != nil {
			return nil, err
		}
		consts[i] = c
	}

	insCount, err := readU32(r)
	if err != nil {
		return nil, err
	}
	ins := make([]Instruction, insCount)
	for i := range ins {
		opBuf := make([]byte, 1)
		if _, err := io.ReadFull(r, opBuf); err != nil {
			return nil, err
		}
		var operand int32
		if err := binary.Read(r, binary.LittleEndian, &operand); err != nil {
			return nil, err
		}
		ins[i] = Instruction{Op: Opcode(opBuf[0]), Operand: int(operand)}
	}

	return &Chunk{Instructions: ins, Constants: consts}, nil
}

func decodeConst(r io.Reader) (ChunkConst, error) {
	tagBuf := make([]byte, 1)
	if _, err := io.ReadFull(r, tagBuf); err != nil {
		return ChunkConst{}, err
	}
	tag := tagBuf[0]
	switch tag {
	case constNumber:
		var bits uint64
		if err := binary.Read(r, binary.LittleEndian, &bits); err != nil {
			return ChunkConst{}, err
		}
		return ChunkConst{Tag: tag, Num: math.Float64frombits(bits)}, nil
	case constString:
		n, err := readU32(r)
		if err != nil {
			return ChunkConst{}, err
		}
		buf := make([]byte, n)
		if _, err := io.ReadFull(r, buf); err != nil {
			return ChunkConst{}, err
		}
		return ChunkConst{Tag: tag, Str: string(buf)}, nil
	case constBool:
		b := make([]byte, 1)
		if _, err := io.ReadFull(r, b); err != nil {
			return ChunkConst{}, err
		}
		return ChunkConst{Tag: tag, Bool: b[0] != 0}, nil
	case constNull:
		return ChunkConst{Tag: tag}, nil
	default:
		return ChunkConst{}, errors.New("bytecode: unknown constant tag")
	}
}

func writeU32(w io.Writer, v uint32) error {
	return binary.Write(w, binary.LittleEndian, v)
}

func readU32(r io.Reader) (uint32, error) {
	var v uint32
	err := binary.Read(r, binary.LittleEndian, &v)
	return v, err
}

func writeString4(w io.Writer, s string) error {
	_, err := w.Write([]byte(s))
	return err
}
