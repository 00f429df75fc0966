package antconfig

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnv overrides fields in c from ANT_GW_* environment variables.
// It cannot tell a default from an explicitly set value: every field
// whose variable is set (and parses) is overwritten. Precedence is
// therefore order-based: env vars win over New's defaults and over any
// Option applied before ApplyEnv, and an Option applied after ApplyEnv
// wins over the env var. Numeric/bool parsing is lax: an unset
// or empty variable is ignored, a malformed one is reported but does not
// stop later overrides from applying.
func ApplyEnv(c *Config) error {
	var firstErr error
	recordErr := func(err error) {
		if firstErr == nil {
			firstErr = err
		}
	}
	get := func(k string) (string, bool) {
		v, ok := os.LookupEnv(k)
		return strings.TrimSpace(v), ok
	}

	if v, ok := get("ANT_GW_SERIAL"); ok && v != "" {
		c.SerialDevice = v
	}
	if v, ok := get("ANT_GW_BAUD"); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Baud = n
		} else if err != nil {
			recordErr(fmt.Errorf("invalid ANT_GW_BAUD: %w", err))
		}
	}
	if v, ok := get("ANT_GW_READ_TIMEOUT"); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			c.ReadTimeout = d
		} else if err != nil {
			recordErr(fmt.Errorf("invalid ANT_GW_READ_TIMEOUT: %w", err))
		}
	}
	if v, ok := get("ANT_GW_USB_VENDOR"); ok && v != "" {
		if n, err := strconv.ParseUint(v, 0, 16); err == nil {
			c.USBVendorID = uint16(n)
		} else {
			recordErr(fmt.Errorf("invalid ANT_GW_USB_VENDOR: %w", err))
		}
	}
	if v, ok := get("ANT_GW_USB_PRODUCT"); ok && v != "" {
		if n, err := strconv.ParseUint(v, 0, 16); err == nil {
			c.USBProductID = uint16(n)
		} else {
			recordErr(fmt.Errorf("invalid ANT_GW_USB_PRODUCT: %w", err))
		}
	}
	if v, ok := get("ANT_GW_LOG_FORMAT"); ok && v != "" {
		c.LogFormat = v
	}
	if v, ok := get("ANT_GW_LOG_LEVEL"); ok && v != "" {
		c.LogLevel = v
	}
	if v, ok := get("ANT_GW_METRICS_ADDR"); ok {
		c.MetricsAddr = v
	}
	if v, ok := get("ANT_GW_RELAY_ADDR"); ok && v != "" {
		c.RelayAddr = v
	}
	if v, ok := get("ANT_GW_RELAY_BUFFER"); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.RelayBuffer = n
		} else if err != nil {
			recordErr(fmt.Errorf("invalid ANT_GW_RELAY_BUFFER: %w", err))
		}
	}
	if v, ok := get("ANT_GW_RELAY_POLICY"); ok && v != "" {
		c.RelayPolicy = v
	}
	if v, ok := get("ANT_GW_RELAY_MAX_CLIENTS"); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.RelayMaxClients = n
		} else if err != nil {
			recordErr(fmt.Errorf("invalid ANT_GW_RELAY_MAX_CLIENTS: %w", err))
		}
	}
	if v, ok := get("ANT_GW_RELAY_HANDSHAKE_TIMEOUT"); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			c.RelayHandshakeTO = d
		} else if err != nil {
			recordErr(fmt.Errorf("invalid ANT_GW_RELAY_HANDSHAKE_TIMEOUT: %w", err))
		}
	}
	if v, ok := get("ANT_GW_RELAY_CLIENT_READ_TIMEOUT"); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			c.RelayClientReadTO = d
		} else if err != nil {
			recordErr(fmt.Errorf("invalid ANT_GW_RELAY_CLIENT_READ_TIMEOUT: %w", err))
		}
	}
	if v, ok := get("ANT_GW_MDNS_ENABLE"); ok && v != "" {
		switch strings.ToLower(v) {
		case "1", "true", "yes", "on":
			c.MDNSEnable = true
		case "0", "false", "no", "off":
			c.MDNSEnable = false
		}
	}
	if v, ok := get("ANT_GW_MDNS_NAME"); ok && v != "" {
		c.MDNSName = v
	}
	if v, ok := get("ANT_GW_COMMAND_TIMEOUT"); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			c.CommandTimeout = d
		} else if err != nil {
			recordErr(fmt.Errorf("invalid ANT_GW_COMMAND_TIMEOUT: %w", err))
		}
	}
	return firstErr
}
