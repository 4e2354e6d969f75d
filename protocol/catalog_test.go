package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Find(t *testing.T) {
	e, ok := Find("NEC1")
	require.True(t, ok)
	assert.Equal(t, KernelProtoNEC, e.Kernel)

	_, ok = Find("nec1")
	assert.False(t, ok, "Find is exact, unlike FindLike")
}

func Test_FindLike_normalizes(t *testing.T) {
	for _, name := range []string{"rc5", "RC 5", "rc-5", "RC_5"} {
		e, ok := FindLike(name)
		require.True(t, ok, "name %q", name)
		assert.Equal(t, "RC5", e.Name)
	}
}

func Test_FindLike_altName(t *testing.T) {
	e, ok := FindLike("RC6A")
	require.True(t, ok)
	assert.Equal(t, "RC6-6-20", e.Name)
}

func Test_FindLike_unknown(t *testing.T) {
	_, ok := FindLike("not-a-real-protocol")
	assert.False(t, ok)
}

func Test_FindDecoder_family(t *testing.T) {
	entries, ok := FindDecoder("NEC1")
	require.True(t, ok)

	names := make(map[string]bool, len(entries))
	for _, e := range entries {
		names[e.Name] = true
	}
	assert.True(t, names["NEC1"])
	assert.True(t, names["NECx1"])
	assert.True(t, names["NEC2"])
}

func Test_FindDecoder_noFamily(t *testing.T) {
	entries, ok := FindDecoder("JVC")
	require.True(t, ok)
	require.Len(t, entries, 1)
	assert.Equal(t, "JVC", entries[0].Name)
}
