package relay

import (
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/antgateway/ant-core/internal/message"
	"github.com/antgateway/ant-core/internal/metrics"
)

// startWriter launches the goroutine pushing hub messages to one client
// connection, batching writes on a flush interval the way the teacher's
// CAN-frame writer batches frames.
func (s *Server) startWriter(ctxDone <-chan struct{}, conn net.Conn, cl *Client, logger *slog.Logger) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			_ = conn.Close()
			s.hub.Remove(cl)
			s.totalDisconnected.Add(1)
			logger.Info("relay_client_disconnected")
		}()

		t := time.NewTicker(s.flushInterval)
		defer t.Stop()
		batch := make([]message.Message, 0, s.batchSize)

		flush := func() error {
			if len(batch) == 0 {
				return nil
			}
			n := len(batch)
			for _, msg := range batch {
				frame, err := message.Encode(msg)
				if err != nil {
					continue
				}
				if _, err := conn.Write(frame); err != nil {
					wrap := fmt.Errorf("%w: %v", ErrConnWrite, err)
					metrics.IncError(mapErrToMetric(wrap))
					s.setError(wrap)
					batch = batch[:0]
					return wrap
				}
			}
			batch = batch[:0]
			metrics.AddRelayTx(n)
			return nil
		}

		for {
			select {
			case msg := <-cl.Out:
				batch = append(batch, msg)
				if len(batch) >= s.batchSize {
					if err := flush(); err != nil {
						return
					}
				}
			case <-t.C:
				if err := flush(); err != nil {
					return
				}
			case <-cl.Closed:
				_ = flush()
				return
			case <-ctxDone:
				_ = flush()
				return
			}
		}
	}()
}
