package relay

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/grandcat/zeroconf"
)

// mdnsServiceType is the mDNS service type a relay advertises itself
// under, so LAN tooling can discover a running gateway without being
// told its address.
const mdnsServiceType = "_ant-relay._tcp"

// AdvertiseMDNS registers the relay's TCP endpoint over mDNS. The
// returned function unregisters it; it is always safe to call.
func AdvertiseMDNS(ctx context.Context, instance string, port int, meta []string) (func(), error) {
	if instance == "" {
		host, _ := os.Hostname()
		instance = fmt.Sprintf("ant-relay-%s", host)
	}
	svc, err := zeroconf.Register(instance, mdnsServiceType, "local.", port, meta, nil)
	if err != nil {
		return nil, fmt.Errorf("mdns register: %w", err)
	}
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
		case <-done:
		}
		svc.Shutdown()
	}()
	return func() { close(done); svc.Shutdown(); time.Sleep(50 * time.Millisecond) }, nil
}
