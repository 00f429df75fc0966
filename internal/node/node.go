package node

import (
	"context"
	"sync"
	"time"

	"github.com/antgateway/ant-core/internal/eventmachine"
	"github.com/antgateway/ant-core/internal/message"
	"github.com/antgateway/ant-core/internal/transport"
)

// DefaultCommandTimeout bounds how long a channel/node command waits for
// its acknowledgment before giving up. The original hangs forever on an
// unmatched ack (spec.md §9 open question); this rework resolves that by
// requiring every caller to supply a context, with this as a sane
// default for callers that don't need a tighter bound.
const DefaultCommandTimeout = 5 * time.Second

// Node owns one EventMachine, a fixed-size array of Channels sized by
// the stick's reported Capabilities, and a fixed-size array of Network
// slots. Node is the sole mutator of those arrays; Channels refer back
// to Node only to submit commands.
type Node struct {
	evm *eventmachine.EventMachine

	mu       sync.Mutex
	started  bool
	channels []*Channel
	networks []*Network

	stdOptions  uint8
	advOptions  uint8
	advOptions2 uint8
}

// New constructs a Node bound to driver. The EventMachine and channel/
// network slots are not allocated until Start succeeds.
func New(driver transport.Driver) *Node {
	return &Node{evm: eventmachine.New(driver)}
}

// Start runs the Node startup sequence (spec.md §4.4):
//  1. Start the EventMachine.
//  2. Send SystemReset; wait for Startup.
//  3. Send ChannelRequest{messageID=Capabilities}; wait for Capabilities.
//  4. Allocate maxChannels Channel slots, maxNetworks Network slots, and
//     cache the three capability option bytes.
//
// If any step fails, the EventMachine is stopped and the error is
// reported; the Node is left not started.
func (n *Node) Start(ctx context.Context) error {
	n.mu.Lock()
	if n.started {
		n.mu.Unlock()
		return &NodeError{Op: "start", Cause: ErrAlreadyStarted}
	}
	n.mu.Unlock()

	if err := n.evm.Start(); err != nil {
		return &NodeError{Op: "start", Cause: err}
	}

	if err := n.evm.WriteMessage(message.SystemReset{}); err != nil {
		n.evm.Stop()
		return &NodeError{Op: "start: reset", Cause: err}
	}
	if _, err := n.evm.WaitForMessage(ctx, isType[message.Startup]); err != nil {
		n.evm.Stop()
		return &NodeError{Op: "start: await startup", Cause: err}
	}

	capMsg := message.NewChannelRequest(0, message.RequestCapabilities)
	if err := n.evm.WriteMessage(capMsg); err != nil {
		n.evm.Stop()
		return &NodeError{Op: "start: request capabilities", Cause: err}
	}
	capAny, err := n.evm.WaitForMessage(ctx, isType[message.Capabilities])
	if err != nil {
		n.evm.Stop()
		return &NodeError{Op: "start: await capabilities", Cause: err}
	}
	caps := capAny.(message.Capabilities)

	n.mu.Lock()
	n.channels = make([]*Channel, caps.MaxChannels)
	for i := range n.channels {
		n.channels[i] = &Channel{node: n, number: uint8(i)}
	}
	n.networks = make([]*Network, caps.MaxNetworks)
	for i := range n.networks {
		n.networks[i] = &Network{Number: uint8(i)}
	}
	n.stdOptions = caps.StdOptions
	n.advOptions = caps.AdvOptions
	if caps.AdvOptions2 != nil {
		n.advOptions2 = *caps.AdvOptions2
	}
	n.started = true
	n.mu.Unlock()
	return nil
}

// Stop shuts down the EventMachine. Idempotent.
func (n *Node) Stop() {
	n.mu.Lock()
	n.started = false
	n.mu.Unlock()
	n.evm.Stop()
}

// GetCapabilities returns the three cached capability option bytes.
func (n *Node) GetCapabilities() (stdOptions, advOptions, advOptions2 uint8) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.stdOptions, n.advOptions, n.advOptions2
}

// SetNetworkKey installs key into network slot number.
func (n *Node) SetNetworkKey(ctx context.Context, number uint8, key [8]byte) error {
	n.mu.Lock()
	if !n.started {
		n.mu.Unlock()
		return &NodeError{Op: "set network key", Cause: ErrNotStarted}
	}
	if int(number) >= len(n.networks) {
		n.mu.Unlock()
		return &NodeError{Op: "set network key", Cause: ErrNetworkOutOfRange}
	}
	net := n.networks[number]
	n.mu.Unlock()

	msg := message.NewNetworkKey(number, key)
	if err := n.evm.WriteMessage(msg); err != nil {
		return &NodeError{Op: "set network key", Cause: err}
	}
	code, err := n.evm.WaitForAck(ctx, msg.Type())
	if err != nil {
		return &NodeError{Op: "set network key", Cause: err}
	}
	if code != message.ResponseNoError {
		return &NodeError{Op: "set network key", Cause: &ChannelError{Op: "set network key", Code: code}}
	}

	net.Key = key
	return nil
}

// GetFreeChannel returns the first channel slot still in StateFree, or
// ErrNoFreeChannel if every slot is in use.
func (n *Node) GetFreeChannel() (*Channel, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.started {
		return nil, &NodeError{Op: "get free channel", Cause: ErrNotStarted}
	}
	for _, c := range n.channels {
		if c.State() == StateFree {
			return c, nil
		}
	}
	return nil, ErrNoFreeChannel
}

// Network returns the network slot at index number, or nil if out of
// range.
func (n *Node) Network(number uint8) *Network {
	n.mu.Lock()
	defer n.mu.Unlock()
	if int(number) >= len(n.networks) {
		return nil
	}
	return n.networks[number]
}

// RegisterEventListener subscribes cb to every message the EventMachine
// decodes, independent of any channel.
func (n *Node) RegisterEventListener(cb eventmachine.Callback) *eventmachine.Registration {
	return n.evm.RegisterCallback(cb)
}

// isType is a WaitForMessage predicate matching decoded messages of
// concrete type T — the Go stand-in for python's
// `waitForMessage(class_)` isinstance check.
func isType[T message.Message](m message.Message) bool {
	_, ok := m.(T)
	return ok
}
