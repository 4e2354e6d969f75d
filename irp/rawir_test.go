package irp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_ParseRawIR_basic(t *testing.T) {
	raw, err := ParseRawIR("+9000 -4500 +560 -560")
	require.NoError(t, err)
	assert.Equal(t, []uint32{9000, 4500, 560, 560}, raw)
}

func Test_ParseRawIR_commaSeparated(t *testing.T) {
	raw, err := ParseRawIR("9000,-4500,560,-560")
	require.NoError(t, err)
	assert.Equal(t, []uint32{9000, 4500, 560, 560}, raw)
}

func Test_ParseRawIR_missingSignAllowedWhenConsistent(t *testing.T) {
	raw, err := ParseRawIR("9000 -4500")
	require.NoError(t, err)
	assert.Equal(t, []uint32{9000, 4500}, raw)
}

func Test_ParseRawIR_rejectsWrongSignPosition(t *testing.T) {
	_, err := ParseRawIR("-9000 4500")
	assert.Error(t, err)
}

func Test_ParseRawIR_rejectsZeroLength(t *testing.T) {
	_, err := ParseRawIR("+0")
	assert.Error(t, err)
}

func Test_ParseRawIR_rejectsEmpty(t *testing.T) {
	_, err := ParseRawIR("")
	assert.Error(t, err)
}

func Test_FormatRawIR_roundtrip(t *testing.T) {
	want := []uint32{9000, 4500, 560, 560, 560}
	got, err := ParseRawIR(FormatRawIR(want))
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
