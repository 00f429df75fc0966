package node

import (
	"context"
	"sync"

	"github.com/antgateway/ant-core/internal/eventmachine"
	"github.com/antgateway/ant-core/internal/message"
	"github.com/antgateway/ant-core/internal/metrics"
)

// State is a Channel's lifecycle position. Transitions are driven
// exclusively by successful acknowledgments from the stick.
type State int

const (
	StateFree State = iota
	StateAssigned
	StateConfigured
	StateOpen
	StateClosing
)

func (s State) String() string {
	switch s {
	case StateFree:
		return "free"
	case StateAssigned:
		return "assigned"
	case StateConfigured:
		return "configured"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	default:
		return "unknown"
	}
}

// Subscriber receives every channel-scoped message delivered to a
// Channel once it is open.
type Subscriber interface {
	Process(msg message.Message)
}

// SubscriberFunc adapts a plain function to Subscriber.
type SubscriberFunc func(msg message.Message)

func (f SubscriberFunc) Process(msg message.Message) { f(msg) }

// Subscription is the handle returned by Channel.Subscribe.
type Subscription struct {
	sub Subscriber
}

// Channel is one slot owned by a Node. A Channel never outlives its
// Node: operations take a handle back to the owning Node to submit
// commands, but the Node owns channels by index in a slice rather than
// the reverse — avoiding the cyclic Channel↔Node↔EventMachine reference
// web the original carries (spec.md §9).
type Channel struct {
	node   *Node
	number uint8

	mu            sync.Mutex
	state         State
	channelType   uint8
	network       *Network
	device        *DeviceID
	searchTimeout uint8
	period        uint16
	frequency     uint8

	subsMu sync.Mutex
	subs   []*Subscription

	reg *eventmachine.Registration
}

// Number returns the channel number assigned by the Node.
func (c *Channel) Number() uint8 { return c.number }

// State returns the channel's current lifecycle state.
func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// command implements the shared configuration-mutator protocol (spec.md
// §4.4): build → submit → wait for ack → on RESPONSE_NO_ERROR, apply the
// local state mutation; on any failure, leave state untouched and
// surface the error.
func (c *Channel) command(ctx context.Context, op string, msg message.Message, apply func()) error {
	if err := c.node.evm.WriteMessage(msg); err != nil {
		return &ChannelError{Op: op, Cause: err}
	}
	code, err := c.node.evm.WaitForAck(ctx, msg.Type())
	if err != nil {
		return &ChannelError{Op: op, Cause: err}
	}
	if code != message.ResponseNoError {
		return &ChannelError{Op: op, Code: code}
	}

	c.mu.Lock()
	apply()
	state := c.state
	c.mu.Unlock()
	metrics.IncChannelTransition(state.String())
	return nil
}

// Assign binds the channel to channelType on the given network.
func (c *Channel) Assign(ctx context.Context, channelType uint8, net *Network) error {
	msg := message.NewChannelAssign(c.number, channelType, net.Number)
	return c.command(ctx, "assign", msg, func() {
		c.channelType = channelType
		c.network = net
		c.state = StateAssigned
	})
}

// SetID pairs the channel with a device identity.
func (c *Channel) SetID(ctx context.Context, dev DeviceID) error {
	msg := message.NewChannelID(c.number, dev.Number, dev.Type, dev.TransmissionType)
	return c.command(ctx, "set id", msg, func() {
		d := dev
		c.device = &d
		if c.state == StateAssigned {
			c.state = StateConfigured
		}
	})
}

// SetSearchTimeout sets how long the channel searches before giving up.
func (c *Channel) SetSearchTimeout(ctx context.Context, timeout uint8) error {
	msg := message.NewChannelSearchTimeout(c.number, timeout)
	return c.command(ctx, "set search timeout", msg, func() {
		c.searchTimeout = timeout
	})
}

// SetPeriod sets the channel's message rate.
func (c *Channel) SetPeriod(ctx context.Context, period uint16) error {
	msg := message.NewChannelPeriod(c.number, period)
	return c.command(ctx, "set period", msg, func() {
		c.period = period
	})
}

// SetFrequency sets the channel's RF frequency offset.
func (c *Channel) SetFrequency(ctx context.Context, frequency uint8) error {
	msg := message.NewChannelFrequency(c.number, frequency)
	return c.command(ctx, "set frequency", msg, func() {
		c.frequency = frequency
	})
}

// Open opens the channel for RF activity. On success the channel
// registers itself as an EventMachine callback so that subsequent
// channel-scoped data messages are fanned out to its subscribers.
func (c *Channel) Open(ctx context.Context) error {
	msg := message.NewChannelOpen(c.number)
	err := c.command(ctx, "open", msg, func() {
		c.state = StateOpen
	})
	if err != nil {
		return err
	}
	c.reg = c.node.evm.RegisterCallback(eventmachine.CallbackFunc(c.process))
	return nil
}

// Close closes the channel. Per spec.md §4.4 this is a two-step
// rendezvous: after the ChannelClose ack, the stick keeps emitting
// events on this channel until it confirms closure with a
// ChannelEventResponse carrying EVENT_CHANNEL_CLOSED; only then does the
// channel unregister itself.
func (c *Channel) Close(ctx context.Context) error {
	msg := message.NewChannelClose(c.number)
	if err := c.node.evm.WriteMessage(msg); err != nil {
		return &ChannelError{Op: "close", Cause: err}
	}
	code, err := c.node.evm.WaitForAck(ctx, msg.Type())
	if err != nil {
		return &ChannelError{Op: "close", Cause: err}
	}
	if code != message.ResponseNoError {
		return &ChannelError{Op: "close", Code: code}
	}

	c.mu.Lock()
	c.state = StateClosing
	c.mu.Unlock()
	metrics.IncChannelTransition(StateClosing.String())

	_, err = c.node.evm.WaitForMessage(ctx, func(m message.Message) bool {
		ev, ok := m.(message.ChannelEventResponse)
		return ok && ev.ChannelNumber == c.number && ev.MessageCode == message.EventChannelClosed
	})
	if err != nil {
		return &ChannelError{Op: "close", Cause: err}
	}

	c.node.evm.RemoveCallback(c.reg)
	c.reg = nil

	c.mu.Lock()
	c.state = StateAssigned
	c.mu.Unlock()
	metrics.IncChannelTransition(StateAssigned.String())
	return nil
}

// Unassign frees the channel back to the pool.
func (c *Channel) Unassign(ctx context.Context) error {
	msg := message.NewChannelUnassign(c.number)
	return c.command(ctx, "unassign", msg, func() {
		c.state = StateFree
		c.network = nil
		c.device = nil
	})
}

// Subscribe adds a subscriber that receives every channel-scoped
// message once the channel is open. The returned Subscription is used
// to unsubscribe.
func (c *Channel) Subscribe(sub Subscriber) *Subscription {
	s := &Subscription{sub: sub}
	c.subsMu.Lock()
	c.subs = append(c.subs, s)
	c.subsMu.Unlock()
	return s
}

// Unsubscribe removes a subscriber previously returned by Subscribe.
// Removing an already-removed or nil Subscription is a no-op.
func (c *Channel) Unsubscribe(s *Subscription) {
	if s == nil {
		return
	}
	c.subsMu.Lock()
	defer c.subsMu.Unlock()
	for i, existing := range c.subs {
		if existing == s {
			c.subs = append(c.subs[:i], c.subs[i+1:]...)
			return
		}
	}
}

// process is the channel's eventmachine.Callback: it forwards
// channel-scoped messages to every subscriber.
func (c *Channel) process(msg message.Message) {
	cm, ok := msg.(message.ChannelMessage)
	if !ok || cm.Channel() != c.number {
		return
	}

	c.subsMu.Lock()
	subs := make([]*Subscription, len(c.subs))
	copy(subs, c.subs)
	c.subsMu.Unlock()

	for _, s := range subs {
		s.sub.Process(msg)
	}
}
