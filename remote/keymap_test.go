package remote

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mdlayher/irctl/internal/irlog"
	"github.com/mdlayher/irctl/irp"
)

const sampleKeymapTOML = `
[[protocols]]
name = "living-room-tv"
protocol = "NEC1"

[protocols.scancodes]
"0x1200" = "KEY_POWER"
"0x1201" = "KEY_VOLUMEUP"

[[protocols]]
name = "raw-only"

[[protocols.raw]]
keycode = "KEY_CUSTOM"
raw = [9000, 4500, 560, 560]
`

func Test_ParseKeymap_catalogProtocol(t *testing.T) {
	remotes, err := ParseKeymap(strings.NewReader(sampleKeymapTOML), irlog.Discard())
	require.NoError(t, err)
	require.Len(t, remotes, 2)

	r := remotes[0]
	assert.Equal(t, "living-room-tv", r.Name)
	require.Len(t, r.Codes, 2)
	require.NotNil(t, r.ScancodeFields)

	byName := map[string]Code{}
	for _, c := range r.Codes {
		byName[c.Name] = c
	}
	require.Contains(t, byName, "KEY_POWER")
	assert.Equal(t, int64(0x1200), byName["KEY_POWER"].Code[0])
	require.NotNil(t, byName["KEY_POWER"].Vars)
}

func Test_ParseKeymap_catalogProtocol_encodesAndDecodes(t *testing.T) {
	remotes, err := ParseKeymap(strings.NewReader(sampleKeymapTOML), irlog.Discard())
	require.NoError(t, err)
	r := remotes[0]

	msg, err := r.Encode("KEY_POWER", 0, irlog.Discard())
	require.NoError(t, err)
	require.NotEmpty(t, msg.Raw)

	dec, err := r.Decoder(irp.MatcherOptions{})
	require.NoError(t, err)

	var name string
	var code int64
	for _, s := range irp.InfraredDataFromRaw(msg.Raw) {
		if n, c, done := dec.Feed(s); done {
			name, code = n, c
		}
	}
	assert.Equal(t, "KEY_POWER", name)
	assert.Equal(t, int64(0x1200), code)
}

func Test_ParseKeymap_rawOnly(t *testing.T) {
	remotes, err := ParseKeymap(strings.NewReader(sampleKeymapTOML), irlog.Discard())
	require.NoError(t, err)
	r := remotes[1]

	assert.Equal(t, "raw-only", r.Name)
	require.Len(t, r.RawCodes, 1)
	assert.Equal(t, "KEY_CUSTOM", r.RawCodes[0].Name)
	assert.Equal(t, []uint32{9000, 4500, 560, 560}, r.RawCodes[0].Raw)
}

func Test_ParseKeymap_pronto(t *testing.T) {
	const doc = `
[[protocols]]
name = "pronto-remote"

[[protocols.raw]]
keycode = "KEY_X"
pronto = "5000 0073 0000 0001 0005 0014"
`
	remotes, err := ParseKeymap(strings.NewReader(doc), irlog.Discard())
	require.NoError(t, err)
	require.Len(t, remotes, 1)
	require.Len(t, remotes[0].RawCodes, 1)
	assert.NotEmpty(t, remotes[0].RawCodes[0].Raw, "a pronto raw entry should decode to a concrete timing sequence")
}

func Test_ParseKeymap_inlineIRP(t *testing.T) {
	const doc = `
[[protocols]]
name = "inline"
irp = "{38k,564}<1,-1|1,-3>(16,-8,D:8,F:8,1,-78)[D:0..255,F:0..255]"

[protocols.scancodes]
"0x0102" = "KEY_Y"
`
	remotes, err := ParseKeymap(strings.NewReader(doc), irlog.Discard())
	require.NoError(t, err)
	require.Len(t, remotes, 1)
	require.Len(t, remotes[0].Codes, 1)
	assert.Equal(t, int64(0x0102), remotes[0].Codes[0].Code[0])
}

func Test_ParseKeymap_duplicateScancodeKeyWarns(t *testing.T) {
	const doc = `
[[protocols]]
name = "dup"
protocol = "NEC1"

[protocols.scancodes]
"0x0001" = "KEY_A"
"0x0002" = "KEY_A"
`
	var buf bytes.Buffer
	logger := irlog.New(log.New(&buf))
	_, err := ParseKeymap(strings.NewReader(doc), logger)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "duplicate key definition")
}

func Test_ParseKeymap_unknownProtocol(t *testing.T) {
	const doc = `
[[protocols]]
name = "bad"
protocol = "NOT_A_REAL_PROTOCOL"

[protocols.scancodes]
"0x0001" = "KEY_A"
`
	_, err := ParseKeymap(strings.NewReader(doc), irlog.Discard())
	require.Error(t, err)
	var rerr *Error
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, KindUnknownProtocol, rerr.Kind)
}

func Test_ParseKeymap_requiresProtocolIRPOrRaw(t *testing.T) {
	const doc = `
[[protocols]]
name = "empty"
`
	_, err := ParseKeymap(strings.NewReader(doc), irlog.Discard())
	assert.Error(t, err)
}
