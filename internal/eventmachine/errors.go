package eventmachine

import "errors"

// ErrStopped is returned by WaitForAck/WaitForMessage when Stop() is
// called while a caller is blocked waiting, when the pump stops itself
// after a transport read failure, and by calls made after the machine
// has already stopped.
var ErrStopped = errors.New("eventmachine: stopped")

// ErrNotRunning names the not-running condition. Start and Stop do not
// return it: calling Start while running, or Stop while not running, is
// a no-op.
var (
	ErrNotRunning = errors.New("eventmachine: not running")
)
