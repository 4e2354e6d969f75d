package irp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_ParseMode2_basic(t *testing.T) {
	msg, err := ParseMode2("pulse 9000\nspace 4500\npulse 560\nspace 560\n")
	require.NoError(t, err)
	assert.Equal(t, []uint32{9000, 4500, 560, 560}, msg.Raw)
	assert.Nil(t, msg.Carrier)
}

func Test_ParseMode2_foldsConsecutiveSamePolarity(t *testing.T) {
	msg, err := ParseMode2("pulse 100\npulse 200\nspace 300\nspace 400\n")
	require.NoError(t, err)
	assert.Equal(t, []uint32{300, 700}, msg.Raw)
}

func Test_ParseMode2_leadingSpaceIgnored(t *testing.T) {
	msg, err := ParseMode2("space 1000\npulse 100\nspace 200\n")
	require.NoError(t, err)
	assert.Equal(t, []uint32{100, 200}, msg.Raw)
}

func Test_ParseMode2_carrier(t *testing.T) {
	msg, err := ParseMode2("carrier 38000\npulse 100\nspace 200\n")
	require.NoError(t, err)
	require.NotNil(t, msg.Carrier)
	assert.Equal(t, int64(38000), *msg.Carrier)
}

func Test_ParseMode2_conflictingCarrier(t *testing.T) {
	_, err := ParseMode2("carrier 38000\ncarrier 40000\npulse 100\nspace 200\n")
	assert.Error(t, err)
}

func Test_ParseMode2_rejectsZeroDuration(t *testing.T) {
	_, err := ParseMode2("pulse 0\n")
	assert.Error(t, err)
}

func Test_ParseMode2_rejectsGarbageLine(t *testing.T) {
	_, err := ParseMode2("bogus 100\n")
	assert.Error(t, err)
}

func Test_ParseMode2_ignoresComments(t *testing.T) {
	msg, err := ParseMode2("# a comment\npulse 100\nspace 200\n// trailing comment\n")
	require.NoError(t, err)
	assert.Equal(t, []uint32{100, 200}, msg.Raw)
}

func Test_FormatMode2_roundtrip(t *testing.T) {
	c := int64(38000)
	msg := Message{Carrier: &c, Raw: []uint32{9000, 4500, 560, 560}}
	got, err := ParseMode2(FormatMode2(msg))
	require.NoError(t, err)
	assert.Equal(t, msg.Raw, got.Raw)
	require.NotNil(t, got.Carrier)
	assert.Equal(t, *msg.Carrier, *got.Carrier)
}
