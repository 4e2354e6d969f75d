package irp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_ParsePronto_shortForms_roundtrip(t *testing.T) {
	cases := []Pronto{
		{Kind: ProntoRC5, D: 5, F: 20},
		{Kind: ProntoRC5X, D: 3, S: 40, F: 12},
		{Kind: ProntoRC6, D: 7, F: 99},
		{Kind: ProntoNEC1, D: 0, S: 170, F: 16},
	}
	for _, want := range cases {
		s := want.String()
		got, err := ParsePronto(s)
		require.NoError(t, err, "string %q", s)
		assert.Equal(t, want, got)
	}
}

func Test_ParsePronto_rejectsBadWordLength(t *testing.T) {
	_, err := ParsePronto("500 0115 0001 0000 0005 0014")
	assert.Error(t, err)
}

func Test_ParsePronto_rejectsShortInput(t *testing.T) {
	_, err := ParsePronto("0000 006D 0022")
	assert.Error(t, err)
}

func Test_ParsePronto_rejectsInconsistentLength(t *testing.T) {
	// introLen/repeatLen claim more words than are actually present.
	_, err := ParsePronto("5000 0073 0000 0002 0005 0014")
	assert.Error(t, err)
}

func Test_ParsePronto_NEC1_badChecksum(t *testing.T) {
	// F=0x10 encoded with a deliberately wrong complement in the low byte.
	_, err := ParsePronto("900A 006C 0001 0000 00AA 10EE")
	assert.Error(t, err)
}

func Test_Pronto_Encode_shortForm(t *testing.T) {
	p := Pronto{Kind: ProntoRC5, D: 5, F: 20}
	msg, err := p.Encode(2)
	require.NoError(t, err)
	require.NotEmpty(t, msg.Raw)
	assert.Equal(t, 0, len(msg.Raw)%2, "a well-formed message ends on a flash/gap pair boundary")
}

func Test_Pronto_Encode_learnedModulated(t *testing.T) {
	p := Pronto{Kind: ProntoLearnedModulated, Frequency: 38000, Intro: []float64{9000, 4500, 560, 560}, Repeat: []float64{9000, 2250, 560}}
	msg, err := p.Encode(1)
	require.NoError(t, err)
	require.NotNil(t, msg.Carrier)
	assert.Equal(t, int64(38000), *msg.Carrier)
	assert.Equal(t, append(append([]uint32{}, 9000, 4500, 560, 560), 9000, 2250, 560), msg.Raw)
}
