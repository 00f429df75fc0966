// Package node implements the request/response orchestrator that issues
// configuration commands to the stick and awaits matching
// acknowledgments to transition ANT channels through their lifecycle:
// assign → configure → open → close → unassign.
package node

import (
	"errors"
	"fmt"
)

// ChannelError reports that a channel configuration step failed: either
// the stick nacked the command (Code holds the non-zero response code)
// or the command could not be sent or acknowledged (Cause holds the
// underlying error: a *message.Error from encoding, a transport error,
// the context's error, or eventmachine.ErrStopped).
type ChannelError struct {
	Op    string
	Code  uint8
	Cause error
}

func (e *ChannelError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("channel %s: %v", e.Op, e.Cause)
	}
	return fmt.Sprintf("channel %s: response code 0x%02x", e.Op, e.Code)
}

func (e *ChannelError) Unwrap() error { return e.Cause }

// NodeError reports startup/shutdown misuse, exhaustion of free
// channels, or a capability negotiation failure.
type NodeError struct {
	Op    string
	Cause error
}

func (e *NodeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("node %s: %v", e.Op, e.Cause)
	}
	return fmt.Sprintf("node %s", e.Op)
}

func (e *NodeError) Unwrap() error { return e.Cause }

// ErrNoFreeChannel is returned by Node.GetFreeChannel when every
// allocated channel slot is already assigned.
var ErrNoFreeChannel = errors.New("node: no free channel")

// ErrNetworkOutOfRange is returned by Node.SetNetworkKey when number
// exceeds the number of network slots reported in Capabilities.
var ErrNetworkOutOfRange = errors.New("node: network number out of range")

// ErrAlreadyStarted is returned by Node.Start when the Node is already
// running. ErrNotStarted is returned by operations that require a
// completed Start (GetFreeChannel, SetNetworkKey) when called on a Node
// that hasn't started, or has been Stop'd. Stop itself stays idempotent
// rather than erroring, since callers commonly defer/t.Cleanup it.
var (
	ErrAlreadyStarted = errors.New("node: already started")
	ErrNotStarted     = errors.New("node: not started")
)
