package antconfig

import "fmt"

// Validate performs the same semantic range/enum checks the teacher's
// appConfig.validate does, without touching any device or listener.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("nil config")
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format: %s", c.LogFormat)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.LogLevel)
	}
	switch c.RelayPolicy {
	case "drop", "kick":
	default:
		return fmt.Errorf("invalid relay policy: %s", c.RelayPolicy)
	}
	if c.RelayBuffer <= 0 {
		return fmt.Errorf("relay buffer must be > 0 (got %d)", c.RelayBuffer)
	}
	if c.Baud <= 0 {
		return fmt.Errorf("baud must be > 0 (got %d)", c.Baud)
	}
	if c.ReadTimeout <= 0 {
		return fmt.Errorf("read timeout must be > 0")
	}
	if c.RelayHandshakeTO <= 0 {
		return fmt.Errorf("relay handshake timeout must be > 0")
	}
	if c.RelayClientReadTO <= 0 {
		return fmt.Errorf("relay client read timeout must be > 0")
	}
	if c.RelayMaxClients < 0 {
		return fmt.Errorf("relay max clients must be >= 0")
	}
	if c.CommandTimeout <= 0 {
		return fmt.Errorf("command timeout must be > 0")
	}
	return nil
}
