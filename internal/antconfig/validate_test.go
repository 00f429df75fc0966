package antconfig

import "testing"

func TestConfigValidateOK(t *testing.T) {
	c := New()
	if err := c.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
}

func TestConfigValidateErrors(t *testing.T) {
	tests := []struct {
		name string
		mod  func(*Config)
	}{
		{"badLogFormat", func(c *Config) { c.LogFormat = "xx" }},
		{"badLogLevel", func(c *Config) { c.LogLevel = "nope" }},
		{"badRelayPolicy", func(c *Config) { c.RelayPolicy = "x" }},
		{"badRelayBuffer", func(c *Config) { c.RelayBuffer = 0 }},
		{"badBaud", func(c *Config) { c.Baud = 0 }},
		{"badReadTimeout", func(c *Config) { c.ReadTimeout = 0 }},
		{"badHandshakeTimeout", func(c *Config) { c.RelayHandshakeTO = 0 }},
		{"badClientReadTimeout", func(c *Config) { c.RelayClientReadTO = 0 }},
		{"badMaxClients", func(c *Config) { c.RelayMaxClients = -1 }},
		{"badCommandTimeout", func(c *Config) { c.CommandTimeout = 0 }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := New()
			tc.mod(c)
			if err := c.Validate(); err == nil {
				t.Fatalf("%s: expected error", tc.name)
			}
		})
	}
}

func TestConfigValidateNil(t *testing.T) {
	var c *Config
	if err := c.Validate(); err == nil {
		t.Fatal("expected error for nil config")
	}
}
