package relay

import (
	"bytes"
	"context"
	"net"
	"testing"
	"time"

	"github.com/antgateway/ant-core/internal/message"
)

func dialAndHandshake(t *testing.T, ctx context.Context, addr string) (net.Conn, HandshakeInfo) {
	t.Helper()
	d := net.Dialer{Timeout: time.Second}
	c, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	info, err := ClientHandshake(ctx, c, time.Second)
	if err != nil {
		t.Fatalf("client handshake: %v", err)
	}
	return c, info
}

func TestServeHandshakeAndBroadcast(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	h := New()
	srv := NewServer(WithHub(h), WithFlushInterval(time.Millisecond), WithChannelCapacity(8))
	go func() { _ = srv.Serve(ctx) }()
	select {
	case <-srv.Ready():
	case <-time.After(time.Second):
		t.Fatal("server did not signal readiness")
	}

	conn, info := dialAndHandshake(t, ctx, srv.Addr())
	defer conn.Close()
	if info.ChannelCapacity != 8 {
		t.Fatalf("channel capacity = %d, want 8", info.ChannelCapacity)
	}

	deadline := time.Now().Add(200 * time.Millisecond)
	for time.Now().Before(deadline) && h.Count() == 0 {
		time.Sleep(2 * time.Millisecond)
	}
	if h.Count() != 1 {
		t.Fatalf("hub count = %d, want 1", h.Count())
	}

	h.Broadcast(message.Startup{Reason: 0x01})

	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	frame, err := message.Encode(message.Startup{Reason: 0x01})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got := make([]byte, len(frame))
	if _, err := readFull(conn, got); err != nil {
		t.Fatalf("read broadcast frame: %v", err)
	}
	if !bytes.Equal(got, frame) {
		t.Fatalf("got %x, want %x", got, frame)
	}
}

func TestServeRejectsBadHandshake(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	srv := NewServer(WithHandshakeTimeout(100 * time.Millisecond))
	go func() { _ = srv.Serve(ctx) }()
	<-srv.Ready()

	conn, err := net.DialTimeout("tcp", srv.Addr(), time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Drain the server's announcement, then reply with a same-length
	// but mismatched payload instead of echoing the hello.
	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	announce := make([]byte, len(hello)+2)
	if _, err := readFull(conn, announce); err != nil {
		t.Fatalf("read announcement: %v", err)
	}
	bad := make([]byte, len(hello)+1)
	for i := range bad {
		bad[i] = 'x'
	}
	if _, err := conn.Write(bad); err != nil {
		t.Fatalf("write: %v", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	buf := make([]byte, 8)
	if _, err := conn.Read(buf); err == nil {
		t.Fatal("expected connection to be closed after a failed handshake")
	}
}

func TestShutdownClosesListenerAndClients(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	h := New()
	srv := NewServer(WithHub(h))
	go func() { _ = srv.Serve(ctx) }()
	<-srv.Ready()

	conn, _ := dialAndHandshake(t, ctx, srv.Addr())
	defer conn.Close()

	deadline := time.Now().Add(200 * time.Millisecond)
	for time.Now().Before(deadline) && h.Count() == 0 {
		time.Sleep(2 * time.Millisecond)
	}

	sdCtx, sdCancel := context.WithTimeout(context.Background(), time.Second)
	defer sdCancel()
	if err := srv.Shutdown(sdCtx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	buf := make([]byte, 8)
	if _, err := conn.Read(buf); err == nil {
		t.Fatal("expected client connection to be closed after shutdown")
	}
}

func readFull(conn net.Conn, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := conn.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
