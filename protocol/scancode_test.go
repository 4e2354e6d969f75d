package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_ScancodeFields_NEC1_order(t *testing.T) {
	e, ok := Find("NEC1")
	require.True(t, ok)

	fields, err := e.ScancodeFields()
	require.NoError(t, err)
	require.Len(t, fields, 3)

	byName := make(map[string]ScancodeField, len(fields))
	for _, f := range fields {
		byName[f.Name] = f
	}

	assert.Equal(t, ScancodeField{Name: "D", Width: 8, Shift: 16}, byName["D"])
	assert.Equal(t, ScancodeField{Name: "S", Width: 8, Shift: 8}, byName["S"])
	assert.Equal(t, ScancodeField{Name: "F", Width: 8, Shift: 0}, byName["F"])
}

func Test_ScancodeFields_skipsToggle(t *testing.T) {
	e, ok := Find("RC5")
	require.True(t, ok)

	fields, err := e.ScancodeFields()
	require.NoError(t, err)
	for _, f := range fields {
		assert.NotEqual(t, "T", f.Name, "T is never packed into a scancode")
	}
}

func Test_PackScancode_NEC1_roundtrips(t *testing.T) {
	e, ok := Find("NEC1")
	require.True(t, ok)

	const scancode = uint64(0x123456)
	vars, err := e.PackScancode(scancode)
	require.NoError(t, err)

	d, _, err := vars.Get("D")
	require.NoError(t, err)
	s, _, err := vars.Get("S")
	require.NoError(t, err)
	f, _, err := vars.Get("F")
	require.NoError(t, err)

	assert.Equal(t, int64(0x12), d)
	assert.Equal(t, int64(0x34), s)
	assert.Equal(t, int64(0x56), f)
}

func Test_ScancodeWidth(t *testing.T) {
	e, ok := Find("NEC1")
	require.True(t, ok)

	w, err := e.ScancodeWidth()
	require.NoError(t, err)
	assert.Equal(t, uint8(24), w)
}
