package irp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Message_Extend_appendsRawAndAdoptsUnset(t *testing.T) {
	m := Message{Raw: []uint32{1, 2}}
	carrier := int64(38000)
	duty := uint8(33)
	other := Message{Carrier: &carrier, DutyCycle: &duty, Raw: []uint32{3, 4}}

	m.Extend(other)

	assert.Equal(t, []uint32{1, 2, 3, 4}, m.Raw)
	assert.Equal(t, &carrier, m.Carrier)
	assert.Equal(t, &duty, m.DutyCycle)
}

func Test_Message_Extend_keepsExistingCarrier(t *testing.T) {
	mine := int64(40000)
	m := Message{Carrier: &mine, Raw: []uint32{1}}
	theirs := int64(38000)
	m.Extend(Message{Carrier: &theirs, Raw: []uint32{2}})

	assert.Equal(t, int64(40000), *m.Carrier)
	assert.Equal(t, []uint32{1, 2}, m.Raw)
}

func Test_Message_CarrierOrDefault(t *testing.T) {
	var m Message
	assert.Equal(t, int64(38000), m.CarrierOrDefault())

	c := int64(56000)
	m.Carrier = &c
	assert.Equal(t, int64(56000), m.CarrierOrDefault())
}
