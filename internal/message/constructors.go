package message

// Constructors for the variants callers outside this package need to
// build directly (the command layer in internal/node). Kept separate
// from messages.go so the variant definitions stay focused on wire
// layout.

func NewChannelAssign(channelNumber, channelType, networkNumber uint8) ChannelAssign {
	return ChannelAssign{channelHeader{channelNumber}, channelType, networkNumber}
}

func NewChannelUnassign(channelNumber uint8) ChannelUnassign {
	return ChannelUnassign{channelHeader{channelNumber}}
}

func NewChannelID(channelNumber uint8, deviceNumber uint16, deviceType, transmissionType uint8) ChannelID {
	return ChannelID{channelHeader{channelNumber}, deviceNumber, deviceType, transmissionType}
}

func NewChannelPeriod(channelNumber uint8, period uint16) ChannelPeriod {
	return ChannelPeriod{channelHeader{channelNumber}, period}
}

func NewChannelSearchTimeout(channelNumber, timeout uint8) ChannelSearchTimeout {
	return ChannelSearchTimeout{channelHeader{channelNumber}, timeout}
}

func NewChannelFrequency(channelNumber, frequency uint8) ChannelFrequency {
	return ChannelFrequency{channelHeader{channelNumber}, frequency}
}

func NewChannelTXPower(channelNumber, power uint8) ChannelTXPower {
	return ChannelTXPower{channelHeader{channelNumber}, power}
}

func NewChannelOpen(channelNumber uint8) ChannelOpen {
	return ChannelOpen{channelHeader{channelNumber}}
}

func NewChannelClose(channelNumber uint8) ChannelClose {
	return ChannelClose{channelHeader{channelNumber}}
}

func NewChannelRequest(channelNumber, requestedMessageID uint8) ChannelRequest {
	return ChannelRequest{channelHeader{channelNumber}, requestedMessageID}
}

func NewNetworkKey(number uint8, key [8]byte) NetworkKey {
	return NetworkKey{Number: number, Key: key}
}
