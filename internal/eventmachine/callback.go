package eventmachine

import (
	"github.com/antgateway/ant-core/internal/logging"
	"github.com/antgateway/ant-core/internal/message"
)

// Callback receives every message the pump decodes. A Callback must
// return promptly: it runs on the pump goroutine and blocks delivery to
// every other subscriber while it runs.
type Callback interface {
	Process(msg message.Message)
}

// CallbackFunc adapts a plain function to Callback.
type CallbackFunc func(msg message.Message)

func (f CallbackFunc) Process(msg message.Message) { f(msg) }

// Registration is the handle returned by RegisterCallback, used to
// unregister later. Registration is identity-based rather than
// value-equality-based so func-backed callbacks (which are not
// comparable) can be registered and removed like any other.
type Registration struct {
	cb Callback
}

// deliver calls cb.Process, containing both panics and the fact that
// Callback has no error return: a misbehaving subscriber must never take
// down the pump, mirroring python-ant's bare `except Exception: pass`
// around callback.process(message).
func deliver(cb Callback, msg message.Message) {
	defer func() {
		if r := recover(); r != nil {
			logging.Component("eventmachine").Error("callback panicked", "panic", r)
		}
	}()
	cb.Process(msg)
}
