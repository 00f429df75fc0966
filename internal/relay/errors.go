package relay

import (
	"errors"

	"github.com/antgateway/ant-core/internal/metrics"
)

// Sentinel errors used for wrapping so callers can classify via errors.Is.
var (
	ErrListen    = errors.New("listen")
	ErrAccept    = errors.New("accept")
	ErrHandshake = errors.New("handshake")
	ErrConnWrite = errors.New("conn_write")
	ErrContext   = errors.New("context_cancelled")
)

// mapErrToMetric maps a wrapped sentinel error to a metrics label.
func mapErrToMetric(err error) string {
	switch {
	case errors.Is(err, ErrHandshake):
		return metrics.ErrRelayHandshake
	case errors.Is(err, ErrConnWrite):
		return metrics.ErrRelayWrite
	case errors.Is(err, ErrAccept), errors.Is(err, ErrListen):
		return metrics.ErrRelayAccept
	default:
		return "other"
	}
}
