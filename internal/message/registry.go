package message

// decodeFunc builds a typed Message from a validated payload slice.
type decodeFunc func(payload []byte) (Message, error)

// registry is the closed type-byte -> constructor mapping. Registration
// happens once at package init and is never mutated afterward, so lookups
// need no locking.
var registry = map[byte]decodeFunc{
	TypeSystemReset:             func([]byte) (Message, error) { return SystemReset{}, nil },
	TypeStartup:                 decodeStartup,
	TypeChannelAssign:           decodeChannelAssign,
	TypeChannelUnassign:         decodeChannelUnassign,
	TypeChannelID:               decodeChannelID,
	TypeChannelPeriod:           decodeChannelPeriod,
	TypeChannelSearchTimeout:    decodeChannelSearchTimeout,
	TypeChannelFrequency:        decodeChannelFrequency,
	TypeChannelTXPower:          decodeChannelTXPower,
	TypeNetworkKey:              decodeNetworkKey,
	TypeTXPower:                 decodeTXPower,
	TypeChannelOpen:             decodeChannelOpen,
	TypeChannelClose:            decodeChannelClose,
	TypeChannelRequest:          decodeChannelRequest,
	TypeChannelBroadcastData:    decodeChannelBroadcastData,
	TypeChannelAcknowledgedData: decodeChannelAcknowledgedData,
	TypeChannelBurstData:        decodeChannelBurstData,
	TypeChannelEvent:            decodeChannelEvent,
	TypeChannelStatus:           decodeChannelStatus,
	TypeVersion:                 decodeVersion,
	TypeCapabilities:            decodeCapabilities,
	TypeSerialNumber:            decodeSerialNumber,
}

// lookup returns the constructor registered for typ, or false if typ is
// outside the closed set the registry recognizes.
func lookup(typ byte) (decodeFunc, bool) {
	fn, ok := registry[typ]
	return fn, ok
}

// fixedPayloadLen reports the wire payload length required for typ, when
// the type has exactly one valid length. Capabilities is the one variable-
// length type (4 or 5 bytes) and is reported as not fixed; its own decode
// function enforces the two allowed lengths.
func fixedPayloadLen(typ byte) (n int, fixed bool) {
	switch typ {
	case TypeSystemReset, TypeChannelUnassign, TypeChannelOpen, TypeChannelClose, TypeStartup:
		return 1, true
	case TypeChannelSearchTimeout, TypeChannelFrequency, TypeChannelTXPower,
		TypeTXPower, TypeChannelRequest, TypeChannelStatus:
		return 2, true
	case TypeChannelAssign, TypeChannelPeriod, TypeChannelEvent:
		return 3, true
	case TypeChannelID:
		return 5, true
	case TypeSerialNumber:
		return 4, true
	case TypeNetworkKey, TypeChannelBroadcastData, TypeChannelAcknowledgedData,
		TypeChannelBurstData, TypeVersion:
		return 9, true
	case TypeCapabilities:
		return 0, false
	default:
		return 0, false
	}
}
