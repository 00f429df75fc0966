package message

import (
	"bytes"
	"errors"
	"reflect"
	"testing"
)

// S1: SystemReset, 1-byte zero payload, checksum 0xEF.
func TestSystemResetChecksum(t *testing.T) {
	frame, err := Encode(SystemReset{})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	want := []byte{SyncByte, 0x01, TypeSystemReset, 0x00, 0xEF}
	if !bytes.Equal(frame, want) {
		t.Fatalf("frame = % x, want % x", frame, want)
	}
}

// S2: ChannelAssign, 3-byte zero payload, checksum 0xE5.
func TestChannelAssignChecksum(t *testing.T) {
	frame, err := Encode(ChannelAssign{})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	want := []byte{SyncByte, 0x03, TypeChannelAssign, 0x00, 0x00, 0x00, 0xE5}
	if !bytes.Equal(frame, want) {
		t.Fatalf("frame = % x, want % x", frame, want)
	}
}

// S3: ChannelAssign encodes to exactly A4 03 42 00 00 00 E5.
func TestChannelAssignEncodeBytes(t *testing.T) {
	frame, err := Encode(ChannelAssign{})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	want := []byte{0xA4, 0x03, 0x42, 0x00, 0x00, 0x00, 0xE5}
	if !bytes.Equal(frame, want) {
		t.Fatalf("frame = % x, want % x", frame, want)
	}
}

// S4: decode happy path consumes exactly the frame length.
func TestDecodeHappyPath(t *testing.T) {
	frame := []byte{0xA4, 0x03, 0x42, 0x01, 0x00, 0x10, 0xF4}
	msg, n, err := Decode(frame)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if n != 7 {
		t.Fatalf("consumed = %d, want 7", n)
	}
	ca, ok := msg.(ChannelAssign)
	if !ok {
		t.Fatalf("type = %T, want ChannelAssign", msg)
	}
	if ca.ChannelNumber != 1 || ca.ChannelType != 0x00 || ca.NetworkNumber != 0x10 {
		t.Fatalf("decoded = %+v", ca)
	}
}

// S5: the six decode-rejection cases.
func TestDecodeRejections(t *testing.T) {
	cases := []struct {
		name string
		buf  []byte
		kind Kind
	}{
		{"bad sync", []byte{0x00, 0x01, 0x4A, 0x00, 0xEF ^ 0xA4}, InvalidSync},
		{"length too long", []byte{0xA4, 0x0A, 0x4A}, InvalidLength},
		{"bad checksum", []byte{0xA4, 0x01, 0x4A, 0x00, 0x00}, ChecksumMismatch},
		{"unknown type", []byte{0xA4, 0x00, 0xFF, 0xA4 ^ 0xFF}, UnknownType},
		{"incomplete header", []byte{0xA4}, Incomplete},
		{"incomplete body", []byte{0xA4, 0x03, 0x42, 0x00}, Incomplete},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, _, err := Decode(c.buf)
			if err == nil {
				t.Fatalf("expected error")
			}
			var mErr *Error
			if !errors.As(err, &mErr) {
				t.Fatalf("error is not *Error: %v", err)
			}
			if mErr.Kind != c.kind {
				t.Fatalf("kind = %v, want %v", mErr.Kind, c.kind)
			}
		})
	}
}

// S6: garbage bytes are skipped to reach the next valid frame.
func TestProcessBufferResync(t *testing.T) {
	good, err := Encode(SystemReset{})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	buf := append([]byte{0xFF, 0xFF}, good...)

	msgs, consumed, resyncs := ProcessBuffer(buf)
	if len(msgs) != 1 {
		t.Fatalf("got %d messages, want 1", len(msgs))
	}
	if consumed != len(buf) {
		t.Fatalf("consumed = %d, want %d", consumed, len(buf))
	}
	if resyncs != 1 {
		t.Fatalf("resyncs = %d, want 1", resyncs)
	}
	if _, ok := msgs[0].(SystemReset); !ok {
		t.Fatalf("type = %T, want SystemReset", msgs[0])
	}
}

// S7: ChannelEvent payload channelNumber=1, messageID=2, messageCode=3.
func TestChannelEventPayload(t *testing.T) {
	frame, err := EncodeRaw(TypeChannelEvent, []byte{0x01, 0x02, 0x03})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	msg, n, err := Decode(frame)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if n != len(frame) {
		t.Fatalf("consumed = %d, want %d", n, len(frame))
	}
	ev, ok := msg.(ChannelEventResponse)
	if !ok {
		t.Fatalf("type = %T, want ChannelEventResponse", msg)
	}
	if ev.ChannelNumber != 1 || ev.MessageID != 2 || ev.MessageCode != 3 {
		t.Fatalf("decoded = %+v", ev)
	}
}

// S8: Capabilities with and without the optional advOptions2 byte.
func TestCapabilitiesOptionalByte(t *testing.T) {
	frame4, err := EncodeRaw(TypeCapabilities, []byte{8, 0, 0x1E, 0x00})
	if err != nil {
		t.Fatalf("encode 4-byte: %v", err)
	}
	msg, _, err := Decode(frame4)
	if err != nil {
		t.Fatalf("decode 4-byte: %v", err)
	}
	c4 := msg.(Capabilities)
	if c4.AdvOptions2 != nil {
		t.Fatalf("AdvOptions2 = %v, want nil", c4.AdvOptions2)
	}

	frame5, err := EncodeRaw(TypeCapabilities, []byte{8, 0, 0x1E, 0x00, 0x04})
	if err != nil {
		t.Fatalf("encode 5-byte: %v", err)
	}
	msg, _, err = Decode(frame5)
	if err != nil {
		t.Fatalf("decode 5-byte: %v", err)
	}
	c5 := msg.(Capabilities)
	if c5.AdvOptions2 == nil || *c5.AdvOptions2 != 0x04 {
		t.Fatalf("AdvOptions2 = %v, want 0x04", c5.AdvOptions2)
	}
}

// Property: encode/decode round-trips for every registered type that has
// a fixed, non-trivial payload shape.
func TestRoundTrip(t *testing.T) {
	two := uint8(2)
	cases := []Message{
		SystemReset{},
		Startup{Reason: 0x20},
		ChannelAssign{channelHeader{1}, ChannelTypeTwoWayReceive, 0},
		ChannelUnassign{channelHeader{1}},
		ChannelID{channelHeader{1}, 0x1234, 0x78, 0x05},
		ChannelPeriod{channelHeader{1}, 8070},
		ChannelSearchTimeout{channelHeader{1}, 10},
		ChannelFrequency{channelHeader{1}, 57},
		ChannelTXPower{channelHeader{1}, 3},
		NetworkKey{Number: 0, Key: [8]byte{1, 2, 3, 4, 5, 6, 7, 8}},
		TXPower{Power: 3},
		ChannelOpen{channelHeader{1}},
		ChannelClose{channelHeader{1}},
		ChannelRequest{channelHeader{1}, RequestCapabilities},
		ChannelBroadcastData{channelHeader{1}, [8]byte{1, 2, 3, 4, 5, 6, 7, 8}},
		ChannelAcknowledgedData{channelHeader{1}, [8]byte{8, 7, 6, 5, 4, 3, 2, 1}},
		ChannelBurstData{SequencedChannel: 0x21, Data: [8]byte{}},
		ChannelEventResponse{channelHeader{1}, 0x4A, ResponseNoError},
		ChannelStatus{channelHeader{1}, 0x03},
		Version{Version: [9]byte{'2', '.', '0', '0', 0, 0, 0, 0, 0}},
		Capabilities{8, 0, 0x1E, 0x00, &two},
		SerialNumber{Number: [4]byte{1, 2, 3, 4}},
	}

	for _, m := range cases {
		frame, err := Encode(m)
		if err != nil {
			t.Fatalf("encode %#v: %v", m, err)
		}
		got, n, err := Decode(frame)
		if err != nil {
			t.Fatalf("decode %#v: %v", m, err)
		}
		if n != len(frame) {
			t.Fatalf("consumed = %d, want %d for %#v", n, len(frame), m)
		}
		if !reflect.DeepEqual(got, m) {
			t.Fatalf("round trip mismatch: got %#v, want %#v", got, m)
		}
	}
}

// Property: a correctly-framed payload's checksum always folds the whole
// frame (including the checksum byte) to zero.
func TestChecksumFoldsToZero(t *testing.T) {
	frame, err := Encode(ChannelPeriod{channelHeader{2}, 4096})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if checksum(frame) != 0 {
		t.Fatalf("checksum of full frame = 0x%02x, want 0x00", checksum(frame))
	}
}

// Property: ProcessBuffer always makes forward progress on a non-empty
// buffer that is not merely an incomplete prefix.
func TestProcessBufferForwardProgress(t *testing.T) {
	buf := []byte{0xFF, 0xFF, 0xFF, 0xFF}
	_, consumed, _ := ProcessBuffer(buf)
	if consumed != len(buf) {
		t.Fatalf("consumed = %d, want %d (all garbage, no sync byte)", consumed, len(buf))
	}
}

// Property: an incomplete trailing frame is left unconsumed for the next
// read to extend.
func TestProcessBufferLeavesIncompleteTail(t *testing.T) {
	full, err := Encode(SystemReset{})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	buf := append(append([]byte{}, full...), full[:3]...)
	msgs, consumed, _ := ProcessBuffer(buf)
	if len(msgs) != 1 {
		t.Fatalf("got %d messages, want 1", len(msgs))
	}
	if consumed != len(full) {
		t.Fatalf("consumed = %d, want %d", consumed, len(full))
	}
}
