package message

import "encoding/binary"

// Message is satisfied by every typed variant the registry can produce.
// Type and Payload together are sufficient to re-encode the message.
type Message interface {
	Type() byte
	Payload() []byte
}

// ChannelMessage is satisfied by every message whose payload begins with
// a channel number (spec.md §3: "The ChannelMessage family shares a
// common first payload byte channelNumber").
type ChannelMessage interface {
	Message
	Channel() uint8
}

// channelHeader factors out the shared first-payload-byte behavior by
// composition rather than inheritance (spec.md §9 design note).
type channelHeader struct {
	ChannelNumber uint8
}

func (c channelHeader) Channel() uint8 { return c.ChannelNumber }

// --- Control / notification messages -------------------------------------

// SystemReset requests a full reset of the ANT stick.
type SystemReset struct{}

func (SystemReset) Type() byte      { return TypeSystemReset }
func (SystemReset) Payload() []byte { return []byte{0} }

// Startup is emitted by the stick once after SystemReset completes.
type Startup struct {
	Reason uint8
}

func (Startup) Type() byte          { return TypeStartup }
func (m Startup) Payload() []byte   { return []byte{m.Reason} }
func decodeStartup(p []byte) (Message, error) {
	if len(p) != 1 {
		return nil, newErr(InvalidPayload, "startup: want 1 byte, got %d", len(p))
	}
	return Startup{Reason: p[0]}, nil
}

// --- Channel configuration messages ---------------------------------------

// ChannelAssign binds a channel number to a channel type and network slot.
type ChannelAssign struct {
	channelHeader
	ChannelType   uint8
	NetworkNumber uint8
}

func (ChannelAssign) Type() byte { return TypeChannelAssign }
func (m ChannelAssign) Payload() []byte {
	return []byte{m.ChannelNumber, m.ChannelType, m.NetworkNumber}
}
func decodeChannelAssign(p []byte) (Message, error) {
	if len(p) != 3 {
		return nil, newErr(InvalidPayload, "channel assign: want 3 bytes, got %d", len(p))
	}
	return ChannelAssign{channelHeader{p[0]}, p[1], p[2]}, nil
}

// ChannelUnassign frees a previously assigned channel.
type ChannelUnassign struct{ channelHeader }

func (ChannelUnassign) Type() byte          { return TypeChannelUnassign }
func (m ChannelUnassign) Payload() []byte   { return []byte{m.ChannelNumber} }
func decodeChannelUnassign(p []byte) (Message, error) {
	if len(p) != 1 {
		return nil, newErr(InvalidPayload, "channel unassign: want 1 byte, got %d", len(p))
	}
	return ChannelUnassign{channelHeader{p[0]}}, nil
}

// ChannelID sets the paired device identity for a channel.
type ChannelID struct {
	channelHeader
	DeviceNumber     uint16
	DeviceType       uint8
	TransmissionType uint8
}

func (ChannelID) Type() byte { return TypeChannelID }
func (m ChannelID) Payload() []byte {
	p := make([]byte, 5)
	p[0] = m.ChannelNumber
	binary.LittleEndian.PutUint16(p[1:3], m.DeviceNumber)
	p[3] = m.DeviceType
	p[4] = m.TransmissionType
	return p
}
func decodeChannelID(p []byte) (Message, error) {
	if len(p) != 5 {
		return nil, newErr(InvalidPayload, "channel id: want 5 bytes, got %d", len(p))
	}
	return ChannelID{
		channelHeader:    channelHeader{p[0]},
		DeviceNumber:     binary.LittleEndian.Uint16(p[1:3]),
		DeviceType:       p[3],
		TransmissionType: p[4],
	}, nil
}

// ChannelPeriod sets the message rate (in 32768ths of a second) for a channel.
type ChannelPeriod struct {
	channelHeader
	Period uint16
}

func (ChannelPeriod) Type() byte { return TypeChannelPeriod }
func (m ChannelPeriod) Payload() []byte {
	p := make([]byte, 3)
	p[0] = m.ChannelNumber
	binary.LittleEndian.PutUint16(p[1:3], m.Period)
	return p
}
func decodeChannelPeriod(p []byte) (Message, error) {
	if len(p) != 3 {
		return nil, newErr(InvalidPayload, "channel period: want 3 bytes, got %d", len(p))
	}
	return ChannelPeriod{channelHeader{p[0]}, binary.LittleEndian.Uint16(p[1:3])}, nil
}

// ChannelSearchTimeout sets how long the channel searches before giving up.
type ChannelSearchTimeout struct {
	channelHeader
	Timeout uint8
}

func (ChannelSearchTimeout) Type() byte        { return TypeChannelSearchTimeout }
func (m ChannelSearchTimeout) Payload() []byte { return []byte{m.ChannelNumber, m.Timeout} }
func decodeChannelSearchTimeout(p []byte) (Message, error) {
	if len(p) != 2 {
		return nil, newErr(InvalidPayload, "channel search timeout: want 2 bytes, got %d", len(p))
	}
	return ChannelSearchTimeout{channelHeader{p[0]}, p[1]}, nil
}

// ChannelFrequency sets the RF frequency offset for a channel.
type ChannelFrequency struct {
	channelHeader
	Frequency uint8
}

func (ChannelFrequency) Type() byte        { return TypeChannelFrequency }
func (m ChannelFrequency) Payload() []byte { return []byte{m.ChannelNumber, m.Frequency} }
func decodeChannelFrequency(p []byte) (Message, error) {
	if len(p) != 2 {
		return nil, newErr(InvalidPayload, "channel frequency: want 2 bytes, got %d", len(p))
	}
	return ChannelFrequency{channelHeader{p[0]}, p[1]}, nil
}

// ChannelTXPower sets per-channel transmit power.
type ChannelTXPower struct {
	channelHeader
	Power uint8
}

func (ChannelTXPower) Type() byte        { return TypeChannelTXPower }
func (m ChannelTXPower) Payload() []byte { return []byte{m.ChannelNumber, m.Power} }
func decodeChannelTXPower(p []byte) (Message, error) {
	if len(p) != 2 {
		return nil, newErr(InvalidPayload, "channel tx power: want 2 bytes, got %d", len(p))
	}
	return ChannelTXPower{channelHeader{p[0]}, p[1]}, nil
}

// NetworkKey installs a shared network key into a network slot.
type NetworkKey struct {
	Number uint8
	Key    [8]byte
}

func (NetworkKey) Type() byte { return TypeNetworkKey }
func (m NetworkKey) Payload() []byte {
	p := make([]byte, 9)
	p[0] = m.Number
	copy(p[1:], m.Key[:])
	return p
}
func decodeNetworkKey(p []byte) (Message, error) {
	if len(p) != 9 {
		return nil, newErr(InvalidPayload, "network key: want 9 bytes, got %d", len(p))
	}
	var k NetworkKey
	k.Number = p[0]
	copy(k.Key[:], p[1:])
	return k, nil
}

// TXPower sets the transmit power for all channels.
type TXPower struct {
	Power uint8
}

func (TXPower) Type() byte        { return TypeTXPower }
func (m TXPower) Payload() []byte { return []byte{0, m.Power} }
func decodeTXPower(p []byte) (Message, error) {
	if len(p) != 2 {
		return nil, newErr(InvalidPayload, "tx power: want 2 bytes, got %d", len(p))
	}
	return TXPower{Power: p[1]}, nil
}

// --- Channel control messages ----------------------------------------------

// ChannelOpen opens a configured channel for RF activity.
type ChannelOpen struct{ channelHeader }

func (ChannelOpen) Type() byte        { return TypeChannelOpen }
func (m ChannelOpen) Payload() []byte { return []byte{m.ChannelNumber} }
func decodeChannelOpen(p []byte) (Message, error) {
	if len(p) != 1 {
		return nil, newErr(InvalidPayload, "channel open: want 1 byte, got %d", len(p))
	}
	return ChannelOpen{channelHeader{p[0]}}, nil
}

// ChannelClose closes an open channel.
type ChannelClose struct{ channelHeader }

func (ChannelClose) Type() byte        { return TypeChannelClose }
func (m ChannelClose) Payload() []byte { return []byte{m.ChannelNumber} }
func decodeChannelClose(p []byte) (Message, error) {
	if len(p) != 1 {
		return nil, newErr(InvalidPayload, "channel close: want 1 byte, got %d", len(p))
	}
	return ChannelClose{channelHeader{p[0]}}, nil
}

// ChannelRequest asks the stick to emit a specific requested-response
// message (Capabilities, ChannelID, ChannelStatus, Version, SerialNumber).
type ChannelRequest struct {
	channelHeader
	MessageID uint8
}

func (ChannelRequest) Type() byte        { return TypeChannelRequest }
func (m ChannelRequest) Payload() []byte { return []byte{m.ChannelNumber, m.MessageID} }
func decodeChannelRequest(p []byte) (Message, error) {
	if len(p) != 2 {
		return nil, newErr(InvalidPayload, "channel request: want 2 bytes, got %d", len(p))
	}
	return ChannelRequest{channelHeader{p[0]}, p[1]}, nil
}

// --- Channel data messages --------------------------------------------------

// ChannelBroadcastData is unacknowledged application data sent over a channel.
type ChannelBroadcastData struct {
	channelHeader
	Data [8]byte
}

func (ChannelBroadcastData) Type() byte { return TypeChannelBroadcastData }
func (m ChannelBroadcastData) Payload() []byte {
	p := make([]byte, 9)
	p[0] = m.ChannelNumber
	copy(p[1:], m.Data[:])
	return p
}
func decodeChannelBroadcastData(p []byte) (Message, error) {
	if len(p) != 9 {
		return nil, newErr(InvalidPayload, "broadcast data: want 9 bytes, got %d", len(p))
	}
	var m ChannelBroadcastData
	m.ChannelNumber = p[0]
	copy(m.Data[:], p[1:])
	return m, nil
}

// ChannelAcknowledgedData is application data the stick retries until acked.
type ChannelAcknowledgedData struct {
	channelHeader
	Data [8]byte
}

func (ChannelAcknowledgedData) Type() byte { return TypeChannelAcknowledgedData }
func (m ChannelAcknowledgedData) Payload() []byte {
	p := make([]byte, 9)
	p[0] = m.ChannelNumber
	copy(p[1:], m.Data[:])
	return p
}
func decodeChannelAcknowledgedData(p []byte) (Message, error) {
	if len(p) != 9 {
		return nil, newErr(InvalidPayload, "acknowledged data: want 9 bytes, got %d", len(p))
	}
	var m ChannelAcknowledgedData
	m.ChannelNumber = p[0]
	copy(m.Data[:], p[1:])
	return m, nil
}

// ChannelBurstData is one packet of a multi-packet burst transfer. The
// channel number shares its byte with 3 sequencing bits, so it is not a
// plain ChannelMessage; Channel() masks those bits off.
type ChannelBurstData struct {
	SequencedChannel uint8
	Data             [8]byte
}

func (ChannelBurstData) Type() byte   { return TypeChannelBurstData }
func (m ChannelBurstData) Channel() uint8 { return m.SequencedChannel & 0x1F }
func (m ChannelBurstData) Payload() []byte {
	p := make([]byte, 9)
	p[0] = m.SequencedChannel
	copy(p[1:], m.Data[:])
	return p
}
func decodeChannelBurstData(p []byte) (Message, error) {
	if len(p) != 9 {
		return nil, newErr(InvalidPayload, "burst data: want 9 bytes, got %d", len(p))
	}
	var m ChannelBurstData
	m.SequencedChannel = p[0]
	copy(m.Data[:], p[1:])
	return m, nil
}

// --- Channel event / response -----------------------------------------------

// ChannelEventResponse is both a command acknowledgment (messageID names
// the original command's type, messageCode carries RESPONSE_NO_ERROR or an
// error code) and an asynchronous channel event (messageID is a pseudo
// event-channel marker, messageCode is one of the Event* codes). ChannelEvent
// is the same wire type under a name that matches its use as a live event.
type ChannelEventResponse struct {
	channelHeader
	MessageID   uint8
	MessageCode uint8
}

func (ChannelEventResponse) Type() byte { return TypeChannelEvent }
func (m ChannelEventResponse) Payload() []byte {
	return []byte{m.ChannelNumber, m.MessageID, m.MessageCode}
}
func decodeChannelEvent(p []byte) (Message, error) {
	if len(p) != 3 {
		return nil, newErr(InvalidPayload, "channel event: want 3 bytes, got %d", len(p))
	}
	return ChannelEventResponse{channelHeader{p[0]}, p[1], p[2]}, nil
}

// ChannelEvent is an alias for ChannelEventResponse: the registry entry
// for async channel events and the ack-carrying response share one wire
// type and one Go type.
type ChannelEvent = ChannelEventResponse

// --- Requested-response messages --------------------------------------------

// ChannelStatus reports a channel's current lifecycle state.
type ChannelStatus struct {
	channelHeader
	Status uint8
}

func (ChannelStatus) Type() byte        { return TypeChannelStatus }
func (m ChannelStatus) Payload() []byte { return []byte{m.ChannelNumber, m.Status} }
func decodeChannelStatus(p []byte) (Message, error) {
	if len(p) != 2 {
		return nil, newErr(InvalidPayload, "channel status: want 2 bytes, got %d", len(p))
	}
	return ChannelStatus{channelHeader{p[0]}, p[1]}, nil
}

// Version reports the ANT stick's firmware version string, always 9 bytes.
type Version struct {
	Version [9]byte
}

func (Version) Type() byte { return TypeVersion }
func (m Version) Payload() []byte {
	p := make([]byte, 9)
	copy(p, m.Version[:])
	return p
}
func decodeVersion(p []byte) (Message, error) {
	if len(p) != 9 {
		return nil, newErr(InvalidPayload, "version: want 9 bytes, got %d", len(p))
	}
	var m Version
	copy(m.Version[:], p)
	return m, nil
}

// Capabilities is the stick's self-description. AdvOptions2 is optional:
// omitted it yields a 4-byte payload, present a 5-byte one.
type Capabilities struct {
	MaxChannels uint8
	MaxNetworks uint8
	StdOptions  uint8
	AdvOptions  uint8
	AdvOptions2 *uint8
}

func (Capabilities) Type() byte { return TypeCapabilities }
func (m Capabilities) Payload() []byte {
	if m.AdvOptions2 == nil {
		return []byte{m.MaxChannels, m.MaxNetworks, m.StdOptions, m.AdvOptions}
	}
	return []byte{m.MaxChannels, m.MaxNetworks, m.StdOptions, m.AdvOptions, *m.AdvOptions2}
}
func decodeCapabilities(p []byte) (Message, error) {
	switch len(p) {
	case 4:
		return Capabilities{p[0], p[1], p[2], p[3], nil}, nil
	case 5:
		adv2 := p[4]
		return Capabilities{p[0], p[1], p[2], p[3], &adv2}, nil
	default:
		return nil, newErr(InvalidPayload, "capabilities: want 4 or 5 bytes, got %d", len(p))
	}
}

// SerialNumber reports the stick's 4-byte serial number.
type SerialNumber struct {
	Number [4]byte
}

func (SerialNumber) Type() byte { return TypeSerialNumber }
func (m SerialNumber) Payload() []byte {
	p := make([]byte, 4)
	copy(p, m.Number[:])
	return p
}
func decodeSerialNumber(p []byte) (Message, error) {
	if len(p) != 4 {
		return nil, newErr(InvalidPayload, "serial number: want 4 bytes, got %d", len(p))
	}
	var m SerialNumber
	copy(m.Number[:], p)
	return m, nil
}
