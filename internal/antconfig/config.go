// Package antconfig collects the knobs a process wiring together
// internal/transport, internal/eventmachine, internal/node and
// internal/relay needs to pick, without owning a CLI of its own.
//
// There is no main package in this repo (see SPEC_FULL.md's
// Non-goals), so unlike the teacher's cmd/can-server/config.go this is
// not a flag parser: Config is built with functional options and can be
// layered with environment overrides via ApplyEnv.
package antconfig

import "time"

// Config holds the settings a caller assembling an ANT gateway process
// needs: which transport to open, how the relay listens, and how the
// ambient logging/metrics stack is wired.
type Config struct {
	SerialDevice string
	Baud         int
	ReadTimeout  time.Duration

	USBVendorID  uint16
	USBProductID uint16

	LogFormat string
	LogLevel  string

	MetricsAddr string

	RelayAddr         string
	RelayBuffer       int
	RelayPolicy       string
	RelayMaxClients   int
	RelayHandshakeTO  time.Duration
	RelayClientReadTO time.Duration
	MDNSEnable        bool
	MDNSName          string

	CommandTimeout time.Duration
}

const (
	defaultBaud           = 115200
	defaultReadTimeout    = 10 * time.Millisecond
	defaultUSBVendorID    = 0x0fcf
	defaultUSBProductID   = 0x1008
	defaultLogFormat      = "text"
	defaultLogLevel       = "info"
	defaultRelayBuffer    = 512
	defaultRelayPolicy    = "drop"
	defaultHandshakeTO    = 3 * time.Second
	defaultClientReadTO   = 60 * time.Second
	defaultCommandTimeout = 2 * time.Second
)

// New builds a Config with the same defaults the teacher's parseFlags
// assigns, adapted to the ANT transport/relay domain.
func New(opts ...Option) *Config {
	c := &Config{
		SerialDevice:      "/dev/ttyUSB0",
		Baud:              defaultBaud,
		ReadTimeout:       defaultReadTimeout,
		USBVendorID:       defaultUSBVendorID,
		USBProductID:      defaultUSBProductID,
		LogFormat:         defaultLogFormat,
		LogLevel:          defaultLogLevel,
		RelayAddr:         ":20100",
		RelayBuffer:       defaultRelayBuffer,
		RelayPolicy:       defaultRelayPolicy,
		RelayHandshakeTO:  defaultHandshakeTO,
		RelayClientReadTO: defaultClientReadTO,
		CommandTimeout:    defaultCommandTimeout,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type Option func(*Config)

func WithSerialDevice(path string) Option { return func(c *Config) { c.SerialDevice = path } }
func WithBaud(baud int) Option            { return func(c *Config) { c.Baud = baud } }
func WithReadTimeout(d time.Duration) Option {
	return func(c *Config) { c.ReadTimeout = d }
}
func WithUSBIDs(vendor, product uint16) Option {
	return func(c *Config) { c.USBVendorID = vendor; c.USBProductID = product }
}
func WithLogFormat(format string) Option { return func(c *Config) { c.LogFormat = format } }
func WithLogLevel(level string) Option   { return func(c *Config) { c.LogLevel = level } }
func WithMetricsAddr(addr string) Option { return func(c *Config) { c.MetricsAddr = addr } }
func WithRelayAddr(addr string) Option   { return func(c *Config) { c.RelayAddr = addr } }
func WithRelayBuffer(n int) Option       { return func(c *Config) { c.RelayBuffer = n } }
func WithRelayPolicy(policy string) Option {
	return func(c *Config) { c.RelayPolicy = policy }
}
func WithRelayMaxClients(n int) Option { return func(c *Config) { c.RelayMaxClients = n } }
func WithRelayHandshakeTimeout(d time.Duration) Option {
	return func(c *Config) { c.RelayHandshakeTO = d }
}
func WithRelayClientReadTimeout(d time.Duration) Option {
	return func(c *Config) { c.RelayClientReadTO = d }
}
func WithMDNS(enable bool, name string) Option {
	return func(c *Config) { c.MDNSEnable = enable; c.MDNSName = name }
}
func WithCommandTimeout(d time.Duration) Option {
	return func(c *Config) { c.CommandTimeout = d }
}
