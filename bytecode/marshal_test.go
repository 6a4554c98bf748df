package bytecode

import (
	"testing"

	"github.com/deepnoodle-ai/stax/object"
	"github.com/deepnoodle-ai/stax/op"
	"github.com/stretchr/testify/require"
)

func TestMarshalRoundTrip(t *testing.T) {
	p := NewProgram(ProgramParams{
		Instructions: []Instruction{
			{Op: op.Push, Operand: object.NewInt(-7)},
			{Op: op.Push, Operand: object.True},
			{Op: op.Push, Operand: object.NewChar('q')},
			{Op: op.Push, Operand: object.NewString("hi there")},
			{Op: op.Push, Operand: object.NewTypeTag(object.STRING)},
			{Op: op.Convert},
			{Op: op.Set, Operand: object.NewString("s")},
			{Op: op.Jump, Operand: object.NewInt(0)},
		},
		Locations: []SourceLocation{{1, 1}, {1, 1}, {2, 3}, {2, 3}, {3, 1}, {3, 1}, {3, 1}, {4, 1}},
		Labels:    map[string]int{"start": 0},
		Source:    "source text",
		Filename:  "main.stax",
	})

	data, err := Marshal(p)
	require.Nil(t, err)
	require.Equal(t, "STAX", string(data[:4]))

	decoded, err := Unmarshal(data)
	require.Nil(t, err)
	require.Equal(t, p.InstructionCount(), decoded.InstructionCount())
	for i := 0; i < p.InstructionCount(); i++ {
		want, got := p.InstructionAt(i), decoded.InstructionAt(i)
		require.Equal(t, want.Op, got.Op)
		if want.Operand == nil {
			require.Nil(t, got.Operand)
			continue
		}
		require.True(t, object.Equal(want.Operand, got.Operand), "instruction %d", i)
		require.Equal(t, p.LocationAt(i), decoded.LocationAt(i))
	}
	require.Equal(t, p.Labels(), decoded.Labels())
	require.Equal(t, "source text", decoded.Source())
	require.Equal(t, "main.stax", decoded.Filename())
}

func TestMarshalDeterministic(t *testing.T) {
	p := testProgram()
	a, err := Marshal(p)
	require.Nil(t, err)
	b, err := Marshal(p)
	require.Nil(t, err)
	require.Equal(t, a, b)
}

func TestUnmarshalErrors(t *testing.T) {
	_, err := Unmarshal([]byte("nope"))
	require.NotNil(t, err)

	_, err = Unmarshal([]byte("STAX\xff\xff"))
	require.NotNil(t, err)

	// An unresolved jump never survives Unmarshal
	p := NewProgram(ProgramParams{Instructions: []Instruction{
		{Op: op.Jump, Operand: object.NewString("missing")},
	}})
	data, err := Marshal(p)
	require.Nil(t, err)
	_, err = Unmarshal(data)
	require.NotNil(t, err)
	require.Contains(t, err.Error(), "unresolved")
}

func TestIsImage(t *testing.T) {
	data, err := Marshal(testProgram())
	require.Nil(t, err)
	require.True(t, IsImage(data))
	require.False(t, IsImage([]byte("push 1")))
	require.False(t, IsImage(nil))
}
