package bytecode

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	chunk := &Chunk{
		Constants: []ChunkConst{
			{Tag: constNumber, Num: 42},
			{Tag: constString, Str: "hello"},
			{Tag: constBool, Bool: true},
			{Tag: constNull},
		},
		Instructions: []Instruction{
			{Op: OpConst, Operand: 0},
			{Op: OpInvoke, Operand: PackInvoke(1, 2)},
			{Op: OpReturn, Operand: 0},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, chunk))

	got, err := Decode(&buf)
	require.NoError(t, err)
	require.Equal(t, chunk, got)
}

func TestPackUnpackInvoke(t *testing.T) {
	operand := PackInvoke(17, 3)
	sel, argc := UnpackInvoke(operand)
	require.Equal(t, 17, sel)
	require.Equal(t, 3, argc)
}

func TestDecodeBadMagic(t *testing.T) {
	_, err := Decode(bytes.NewReader([]byte("XXXX")))
	require.Error(t, err)
}
