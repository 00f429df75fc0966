package relay

import (
	"log/slog"
	"net"
)

// startReader watches conn for closure. Relay clients are receive-only
// subscribers (spec.md carries no upstream command-injection feature for
// the relay), so bytes a client sends are read and discarded; the client
// is torn down when the connection closes or a read fails.
func (s *Server) startReader(ctxDone <-chan struct{}, conn net.Conn, cl *Client, logger *slog.Logger) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		buf := make([]byte, 64)
		for {
			if _, err := conn.Read(buf); err != nil {
				cl.Close()
				return
			}
			select {
			case <-ctxDone:
				return
			default:
			}
		}
	}()
}
