package remote

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mdlayher/irctl/internal/irlog"
	"github.com/mdlayher/irctl/irp"
)

func testRemote() *Remote {
	return &Remote{
		Name:      "TEST",
		Flags:     FlagConstLength,
		Frequency: 38400,
		Bits:      16,
		Header:    [2]uint32{9000, 4500},
		One:       [2]uint32{560, 1600},
		Zero:      [2]uint32{560, 560},
		Ptrail:    560,
		Gap:       108000,
		Codes: []Code{
			{Name: "KEY_A", Code: []int64{0x00FF}},
			{Name: "KEY_B", Code: []int64{0xFF00}},
		},
	}
}

func Test_Remote_synthesizeIRP_constLength(t *testing.T) {
	r := testRemote()
	src, err := r.EncodeIRP()
	require.NoError(t, err)

	ir, err := irp.Parse(src)
	require.NoError(t, err)
	require.Len(t, ir.Parameters, 1)
	assert.Equal(t, "CODE", ir.Parameters[0].Name)
}

func Test_Remote_Encode_decodesBack(t *testing.T) {
	r := testRemote()
	msg, err := r.Encode("KEY_A", 0, irlog.Discard())
	require.NoError(t, err)
	require.NotEmpty(t, msg.Raw)

	dec, err := r.Decoder(irp.MatcherOptions{})
	require.NoError(t, err)

	var name string
	var code int64
	var ok bool
	for _, s := range irp.InfraredDataFromRaw(msg.Raw) {
		if n, c, done := dec.Feed(s); done {
			name, code, ok = n, c, done
		}
	}
	require.True(t, ok)
	assert.Equal(t, "KEY_A", name)
	assert.Equal(t, int64(0x00FF), code)
}

func Test_Remote_Encode_constLengthKeepsTotalDurationConstant(t *testing.T) {
	// CONST_LENGTH compensates the trailing gap for however long the body
	// took to transmit, so two codes with very different numbers of "1"
	// bits (which run longer than "0" bits in this timing) should still
	// produce frames of equal total duration.
	r := testRemote()
	r.Codes = []Code{
		{Name: "ALL_ZERO", Code: []int64{0x0000}},
		{Name: "ALL_ONE", Code: []int64{0xFFFF}},
	}

	zero, err := r.Encode("ALL_ZERO", 0, irlog.Discard())
	require.NoError(t, err)
	one, err := r.Encode("ALL_ONE", 0, irlog.Discard())
	require.NoError(t, err)

	sum := func(raw []uint32) uint32 {
		var total uint32
		for _, v := range raw {
			total += v
		}
		return total
	}
	assert.Equal(t, sum(zero.Raw), sum(one.Raw))
}

func Test_Remote_Encode_unknownKey(t *testing.T) {
	r := testRemote()
	_, err := r.Encode("NOPE", 0, irlog.Discard())
	assert.Error(t, err)
}

func Test_Remote_Encode_multiCode(t *testing.T) {
	r := testRemote()
	r.Codes = append(r.Codes, Code{Name: "KEY_MULTI", Code: []int64{0x00FF, 0xFF00}})

	single, err := r.Encode("KEY_A", 0, irlog.Discard())
	require.NoError(t, err)
	multi, err := r.Encode("KEY_MULTI", 0, irlog.Discard())
	require.NoError(t, err)

	assert.Greater(t, len(multi.Raw), len(single.Raw), "a multi-code key emits every subcode")
}

func Test_Remote_unsynthesizableFlags(t *testing.T) {
	r := testRemote()
	r.Flags |= FlagRC5
	_, err := r.EncodeIRP()
	assert.Error(t, err)
}

func Test_Remote_RawCode_encode(t *testing.T) {
	r := testRemote()
	r.MinRepeat = 1
	r.RawCodes = []RawCode{{Name: "RAW1", Raw: []uint32{100, 200, 300, 400}}}

	msg, err := r.Encode("RAW1", 0, irlog.Discard())
	require.NoError(t, err)
	// trailing gap 400 dropped; gap shrinks by the const-length
	// remote's own body total (100+200+300=600): 108000-600=107400.
	// body (100,200,300) + gap + one MinRepeat copy (100,200,300) + gap
	assert.Equal(t, []uint32{100, 200, 300, 107400, 100, 200, 300, 107400}, msg.Raw)
}

func Test_Remote_RawCode_distinctRepeat(t *testing.T) {
	r := testRemote()
	r.RawCodes = []RawCode{{Name: "RAW1", Raw: []uint32{100, 200, 300}, Repeat: []uint32{50, 60}}}

	msg, err := r.Encode("RAW1", 1, irlog.Discard())
	require.NoError(t, err)
	assert.Equal(t, []uint32{100, 200, 300, 107400, 50, 60, 107400}, msg.Raw)
}

func Test_EncodeAcrossRemotes_picksMatchingRemote(t *testing.T) {
	a := testRemote()
	b := testRemote()
	b.Name = "OTHER"
	b.Codes = []Code{{Name: "KEY_ONLY_ON_B", Code: []int64{0x1}}}

	msg, err := EncodeAcrossRemotes([]*Remote{a, b}, "", "KEY_ONLY_ON_B", 0, irlog.Discard())
	require.NoError(t, err)
	assert.NotEmpty(t, msg.Raw)
}

func Test_EncodeAcrossRemotes_notFound(t *testing.T) {
	a := testRemote()
	_, err := EncodeAcrossRemotes([]*Remote{a}, "", "NOPE", 0, irlog.Discard())
	assert.Error(t, err)
}

func Test_Decoder_togglebitMaskIsMasked(t *testing.T) {
	r := testRemote()
	r.ToggleBitMask = 0x8000
	r.Codes = []Code{{Name: "KEY_A", Code: []int64{0x00FF}}}

	vars := irp.NewVartable()
	vars.Set("CODE", 0x00FF|0x8000, 16) // toggle bit set on the wire
	ir, err := irp.Parse(must(r.EncodeIRP()))
	require.NoError(t, err)
	msg, err := irp.Encode(ir, vars, 0)
	require.NoError(t, err)

	dec, err := r.Decoder(irp.MatcherOptions{})
	require.NoError(t, err)

	var name string
	for _, s := range irp.InfraredDataFromRaw(msg.Raw) {
		if n, _, done := dec.Feed(s); done {
			name = n
		}
	}
	assert.Equal(t, "KEY_A", name, "decoding should mask off the toggle bit before comparing")
}

func must(s string, err error) string {
	if err != nil {
		panic(err)
	}
	return s
}
