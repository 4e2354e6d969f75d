package remote

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mdlayher/irctl/internal/irlog"
)

const sampleLircdConf = `
# a comment line, and a trailing comment below
begin remote
  name  TEST_REMOTE
  bits           16
  flags CONST_LENGTH|REVERSE
  eps            30
  aeps          100
  frequency    38400

  header       9000  4500
  one           560  1600
  zero          560   560
  ptrail        560
  gap          108000
  toggle_bit_mask 0x8000

  begin codes
      KEY_POWER                0x00FF
      KEY_MULTI                0x1111 0x2222
  end codes

  begin raw_codes
      name KEY_RAW1
          100   200   300   400
      name KEY_RAW2
          500 600
  end raw_codes

end remote
`

func Test_ParseLircd_basicFields(t *testing.T) {
	remotes, err := ParseLircd(strings.NewReader(sampleLircdConf), irlog.Discard())
	require.NoError(t, err)
	require.Len(t, remotes, 1)

	r := remotes[0]
	assert.Equal(t, "TEST_REMOTE", r.Name)
	assert.Equal(t, 16, r.Bits)
	assert.True(t, r.Flags.has(FlagConstLength))
	assert.True(t, r.Flags.has(FlagReverse))
	assert.Equal(t, uint32(30), r.RelativeTolerance)
	assert.Equal(t, uint32(100), r.AbsoluteTolerance)
	assert.Equal(t, uint32(38400), r.Frequency)
	assert.Equal(t, [2]uint32{9000, 4500}, r.Header)
	assert.Equal(t, [2]uint32{560, 1600}, r.One)
	assert.Equal(t, [2]uint32{560, 560}, r.Zero)
	assert.Equal(t, uint32(560), r.Ptrail)
	assert.Equal(t, uint32(108000), r.Gap)
	assert.Equal(t, uint64(0x8000), r.ToggleBitMask)
}

func Test_ParseLircd_codes(t *testing.T) {
	remotes, err := ParseLircd(strings.NewReader(sampleLircdConf), irlog.Discard())
	require.NoError(t, err)
	r := remotes[0]

	require.Len(t, r.Codes, 2)
	assert.Equal(t, "KEY_POWER", r.Codes[0].Name)
	assert.Equal(t, []int64{0x00FF}, r.Codes[0].Code)
	assert.Equal(t, "KEY_MULTI", r.Codes[1].Name)
	assert.Equal(t, []int64{0x1111, 0x2222}, r.Codes[1].Code)
}

func Test_ParseLircd_rawCodes(t *testing.T) {
	remotes, err := ParseLircd(strings.NewReader(sampleLircdConf), irlog.Discard())
	require.NoError(t, err)
	r := remotes[0]

	require.Len(t, r.RawCodes, 2)
	assert.Equal(t, "KEY_RAW1", r.RawCodes[0].Name)
	assert.Equal(t, []uint32{100, 200, 300, 400}, r.RawCodes[0].Raw)
	assert.Equal(t, "KEY_RAW2", r.RawCodes[1].Name)
	assert.Equal(t, []uint32{500, 600}, r.RawCodes[1].Raw)
}

func Test_ParseLircd_duplicateKeyWarns(t *testing.T) {
	const conf = `
begin remote
  name DUP
  bits 8
  header 100 100
  one 10 10
  zero 10 20
  gap 20000
  begin codes
      KEY_A 0x01
      KEY_A 0x02
  end codes
end remote
`
	var buf bytes.Buffer
	logger := irlog.New(log.New(&buf))

	remotes, err := ParseLircd(strings.NewReader(conf), logger)
	require.NoError(t, err)
	require.Len(t, remotes, 1)
	require.Len(t, remotes[0].Codes, 2)
	assert.True(t, remotes[0].Codes[1].Dup)
	assert.Contains(t, buf.String(), "duplicate key definition")
}

func Test_ParseLircd_missingGapWarns(t *testing.T) {
	const conf = `
begin remote
  name NOGAP
  bits 8
  header 100 100
  one 10 10
  zero 10 20
  begin codes
      KEY_A 0x01
  end codes
end remote
`
	var buf bytes.Buffer
	logger := irlog.New(log.New(&buf))

	_, err := ParseLircd(strings.NewReader(conf), logger)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "no gap")
}

func Test_ParseLircd_rejectsMissingBeginRemote(t *testing.T) {
	_, err := ParseLircd(strings.NewReader("bits 8\n"), irlog.Discard())
	assert.Error(t, err)
}

func Test_ParseLircd_rejectsUnterminatedBlock(t *testing.T) {
	_, err := ParseLircd(strings.NewReader("begin remote\nname X\n"), irlog.Discard())
	assert.Error(t, err)
}

func Test_ParseLircd_unknownFlagWarnsNotErrors(t *testing.T) {
	const conf = `
begin remote
  name X
  bits 8
  flags SPACE_ENC
  header 100 100
  one 10 10
  zero 10 20
  gap 20000
  begin codes
      KEY_A 0x01
  end codes
end remote
`
	var buf bytes.Buffer
	logger := irlog.New(log.New(&buf))
	remotes, err := ParseLircd(strings.NewReader(conf), logger)
	require.NoError(t, err)
	require.Len(t, remotes, 1)
	assert.Contains(t, buf.String(), "unknown lircd.conf flag")
}

func Test_ParseLircd_multipleRemotes(t *testing.T) {
	const conf = `
begin remote
  name FIRST
  bits 8
  header 100 100
  one 10 10
  zero 10 20
  gap 20000
  begin codes
      KEY_A 0x01
  end codes
end remote
begin remote
  name SECOND
  bits 8
  header 100 100
  one 10 10
  zero 10 20
  gap 20000
  begin codes
      KEY_B 0x02
  end codes
end remote
`
	remotes, err := ParseLircd(strings.NewReader(conf), irlog.Discard())
	require.NoError(t, err)
	require.Len(t, remotes, 2)
	assert.Equal(t, "FIRST", remotes[0].Name)
	assert.Equal(t, "SECOND", remotes[1].Name)
}
