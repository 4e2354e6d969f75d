package irp

// Message is the wire value produced by every encoder and consumed by
// every decoder: an optional carrier frequency and duty cycle plus the
// flash/gap timing sequence. Raw[2k] is a flash (LED on) duration in
// microseconds; Raw[2k+1] is the following gap (LED off). A trailing gap
// is optional.
type Message struct {
	Carrier   *int64 // Hz; nil means unspecified, 0 means explicitly unmodulated
	DutyCycle *uint8 // 1..99
	Raw       []uint32
}

// CarrierOrDefault returns the carrier in Hz, defaulting to 38000 (the
// overwhelmingly common consumer-IR carrier) when unset.
func (m Message) CarrierOrDefault() int64 {
	if m.Carrier == nil {
		return 38000
	}
	return *m.Carrier
}

// Extend appends other's raw sequence to m, adopting other's carrier and
// duty cycle if m does not already have one set. It is used to splice
// together several encoded transmissions (e.g. a raw code followed by a
// parameterized one) into a single Message.
func (m *Message) Extend(other Message) {
	if m.Carrier == nil {
		m.Carrier = other.Carrier
	}
	if m.DutyCycle == nil {
		m.DutyCycle = other.DutyCycle
	}
	m.Raw = append(m.Raw, other.Raw...)
}
