package config

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{
			name: "all flags",
			args: []string{
				"-a", "127.0.0.1:9090", "-d", "db", "-g", "http://gw", "-k", "key", "-s", "secret",
				"-y", "USD", "-t", "3", "-q", "2", "-j", "jwt", "-m", "admin",
				"-u", "user", "-p", "password", "-b", "bucket", "-r", "us-west-1", "-e", "http://endpoint",
				"-f", "@every 1h", "-l", "debug",
			},
			expected: &Config{
				EndpointAddrHTTP: "127.0.0.1:9090",
				DatabaseDSN:      "db",
				GatewayBaseURL:   "http://gw",
				GatewayKeyID:     "key",
				GatewayKeySecret: "secret",
				Currency:         "USD",
				GatewayTimeout:   3 * time.Second,
				StoreTimeout:     2 * time.Second,
				AuthSecret:       "jwt",
				AdminToken:       "admin",
				S3RootUser:       "user",
				S3RootPassword:   "password",
				S3Bucket:         "bucket",
				S3Region:         "us-west-1",
				S3BaseEndpoint:   "http://endpoint",
				BackfillSchedule: "@every 1h",
				LogLevel:         "debug",
			},
		},
		{
			name:        "non-numeric timeout panics",
			args:        []string{"-t", "soon"},
			expectPanic: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := &Config{}

			if tt.expectPanic {
				require.Panics(t, func() { parseFlags(config, tt.args) })
				return
			}
			require.NotPanics(t, func() { parseFlags(config, tt.args) })
			assert.Empty(t, cmp.Diff(tt.expected, config))
		})
	}
}

func TestParseFlags_IgnoresForeignFlags(t *testing.T) {
	config := &Config{}
	config.LoadDefaults()

	parseFlags(config, []string{"-c", "conf.json", "-test.v=true", "-a", ":9999"})

	assert.Equal(t, ":9999", config.EndpointAddrHTTP)
	assert.Equal(t, 10*time.Second, config.GatewayTimeout)
}
