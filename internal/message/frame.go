package message

// EncodeRaw builds a complete wire frame from a type byte and payload,
// independent of the typed registry. It is the primitive Encode builds on
// and is also useful for constructing frames of unregistered or
// deliberately malformed types in tests.
func EncodeRaw(typ byte, payload []byte) ([]byte, error) {
	if len(payload) > MaxPayloadLen {
		return nil, newErr(InvalidPayload, "payload length %d exceeds max %d", len(payload), MaxPayloadLen)
	}
	if n, fixed := fixedPayloadLen(typ); fixed && n != len(payload) {
		return nil, newErr(InvalidPayload, "type 0x%02x requires %d-byte payload, got %d", typ, n, len(payload))
	}

	frame := make([]byte, 4+len(payload))
	frame[0] = SyncByte
	frame[1] = byte(len(payload))
	frame[2] = typ
	copy(frame[3:], payload)
	frame[len(frame)-1] = checksum(frame[:len(frame)-1])
	return frame, nil
}

// Encode builds a complete wire frame for a typed Message.
func Encode(m Message) ([]byte, error) {
	return EncodeRaw(m.Type(), m.Payload())
}

// checksum folds every byte of the sync..payload span (everything but the
// trailing checksum byte itself) with XOR. A valid frame's checksum byte
// makes the XOR of the entire frame, including that byte, equal zero.
func checksum(b []byte) byte {
	var c byte
	for _, x := range b {
		c ^= x
	}
	return c
}

// Decode attempts to parse one frame from the front of b. On success it
// returns the typed message and the number of bytes consumed. On failure
// it returns a *Error classifying why: Incomplete means b may be a prefix
// of a valid frame and the caller should wait for more bytes; every other
// Kind means the bytes at b[0] cannot begin a valid frame and the caller
// should resynchronize (see ProcessBuffer).
func Decode(b []byte) (Message, int, error) {
	if len(b) < 1 {
		return nil, 0, newErr(Incomplete, "")
	}
	if b[0] != SyncByte {
		return nil, 0, newErr(InvalidSync, "want 0x%02x, got 0x%02x", SyncByte, b[0])
	}
	if len(b) < 2 {
		return nil, 0, newErr(Incomplete, "")
	}
	length := int(b[1])
	if length > MaxPayloadLen {
		return nil, 0, newErr(InvalidLength, "%d exceeds max %d", length, MaxPayloadLen)
	}
	frameLen := 4 + length
	if len(b) < frameLen {
		return nil, 0, newErr(Incomplete, "")
	}

	typ := b[2]
	payload := b[3 : 3+length]
	want := checksum(b[:frameLen-1])
	got := b[frameLen-1]
	if want != got {
		return nil, 0, newErr(ChecksumMismatch, "want 0x%02x, got 0x%02x", want, got)
	}

	fn, ok := lookup(typ)
	if !ok {
		return nil, 0, newErr(UnknownType, "0x%02x", typ)
	}
	msg, err := fn(payload)
	if err != nil {
		return nil, 0, err
	}
	return msg, frameLen, nil
}
