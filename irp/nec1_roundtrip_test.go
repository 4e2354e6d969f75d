package irp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// Test_NEC1_encodeDecode_roundtrip checks property 1 from the protocol
// toolkit's design: for any legal D/F, encoding then decoding through the
// automaton reproduces the original parameters, with S following NEC1's
// own complement default.
func Test_NEC1_encodeDecode_roundtrip(t *testing.T) {
	ir, err := Parse(nec1IRP)
	require.NoError(t, err)
	nfa, err := BuildNFA(ir)
	require.NoError(t, err)
	dfa, err := BuildDFA(nfa)
	require.NoError(t, err)

	rapid.Check(t, func(t *rapid.T) {
		d := rapid.IntRange(0, 255).Draw(t, "D")
		f := rapid.IntRange(0, 255).Draw(t, "F")

		vars := NewVartable()
		vars.Set("D", int64(d), 8)
		vars.Set("F", int64(f), 8)

		msg, err := Encode(ir, vars, 0)
		require.NoError(t, err)

		m := NewMatcher(dfa, DefaultMatcherOptions())
		var got map[string]int64
		for _, s := range InfraredDataFromRaw(msg.Raw) {
			if res, done := m.Feed(s); done {
				got = res
			}
		}

		require.NotNil(t, got)
		assert.Equal(t, int64(d), got["D"])
		assert.Equal(t, int64(255-d), got["S"])
		assert.Equal(t, int64(f), got["F"])
	})
}
