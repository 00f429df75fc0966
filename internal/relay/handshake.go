package relay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"
)

// hello identifies the relay wire protocol, the way CANNELLONIv1
// identifies the teacher's cannelloni bridge protocol.
const hello = "ANTRELAYv1"

// protocolVersion is the highest handshake version this build speaks.
const protocolVersion byte = 1

var (
	errBadHello           = errors.New("bad hello")
	errUnsupportedVersion = errors.New("unsupported handshake version")
)

// HandshakeInfo is what a client learns about the relay it has just
// connected to. ChannelCapacity mirrors the MaxChannels a Node itself
// learns from the stick's Capabilities message (internal/node), handed
// one more hop downstream so a relay client can size its own
// per-channel bookkeeping before it has seen a single
// ChannelBroadcastData frame come through.
type HandshakeInfo struct {
	Version         byte
	ChannelCapacity byte
}

// ServerHandshake is the server side of the relay handshake: unlike a
// symmetric hello exchange, the server speaks first — announcing the
// hello magic, its protocol version and the gateway's channel capacity
// — then waits for the client to echo the hello and the version it is
// willing to speak. It fails if the client's hello doesn't match or
// names a version newer than this build supports.
func ServerHandshake(ctx context.Context, c net.Conn, timeout time.Duration, channelCapacity byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := c.SetDeadline(time.Now().Add(timeout)); err != nil {
		return fmt.Errorf("set deadline: %w", err)
	}
	defer c.SetDeadline(time.Time{})

	announce := append([]byte(hello), protocolVersion, channelCapacity)
	if _, err := c.Write(announce); err != nil {
		return fmt.Errorf("handshake: write: %w", err)
	}

	reply := make([]byte, len(hello)+1)
	if _, err := io.ReadFull(c, reply); err != nil {
		return fmt.Errorf("handshake: read: %w", err)
	}
	if string(reply[:len(hello)]) != hello {
		return fmt.Errorf("handshake: %w", errBadHello)
	}
	if reply[len(hello)] > protocolVersion {
		return fmt.Errorf("handshake: %w", errUnsupportedVersion)
	}
	return nil
}

// ClientHandshake is the client side: it reads the server's
// announcement, then echoes back the hello and the lower of its own
// and the server's protocol version.
func ClientHandshake(ctx context.Context, c net.Conn, timeout time.Duration) (HandshakeInfo, error) {
	if err := ctx.Err(); err != nil {
		return HandshakeInfo{}, err
	}
	if err := c.SetDeadline(time.Now().Add(timeout)); err != nil {
		return HandshakeInfo{}, fmt.Errorf("set deadline: %w", err)
	}
	defer c.SetDeadline(time.Time{})

	announce := make([]byte, len(hello)+2)
	if _, err := io.ReadFull(c, announce); err != nil {
		return HandshakeInfo{}, fmt.Errorf("handshake: read: %w", err)
	}
	if string(announce[:len(hello)]) != hello {
		return HandshakeInfo{}, fmt.Errorf("handshake: %w", errBadHello)
	}
	info := HandshakeInfo{
		Version:         announce[len(hello)],
		ChannelCapacity: announce[len(hello)+1],
	}

	version := info.Version
	if version > protocolVersion {
		version = protocolVersion
	}
	reply := append([]byte(hello), version)
	if _, err := c.Write(reply); err != nil {
		return HandshakeInfo{}, fmt.Errorf("handshake: write: %w", err)
	}
	return info, nil
}
