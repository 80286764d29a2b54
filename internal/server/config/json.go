package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/tipjar/internal/flagx"
	"github.com/dmitrijs2005/tipjar/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Durations use
// timex.Duration so both "5s" and integer nanoseconds are accepted.
type JsonConfig struct {
	EndpointAddrHTTP string         `json:"endpoint_addr_http"`
	DatabaseDSN      string         `json:"database_dsn"`
	GatewayBaseURL   string         `json:"gateway_base_url"`
	GatewayKeyID     string         `json:"gateway_key_id"`
	GatewayKeySecret string         `json:"gateway_key_secret"`
	Currency         string         `json:"currency"`
	GatewayTimeout   timex.Duration `json:"gateway_timeout"`
	StoreTimeout     timex.Duration `json:"store_timeout"`
	AuthSecret       string         `json:"auth_secret"`
	AdminToken       string         `json:"admin_token"`
	S3RootUser       string         `json:"s3_root_user"`
	S3RootPassword   string         `json:"s3_root_password"`
	S3Bucket         string         `json:"s3_bucket"`
	S3Region         string         `json:"s3_region"`
	S3BaseEndpoint   string         `json:"s3_base_endpoint"`
	BackfillSchedule string         `json:"backfill_schedule"`
	LogLevel         string         `json:"log_level"`
}

// parseJson overlays values from the file named by -c / -config onto config.
// Keys absent from the file leave the current values untouched.
// An unreadable file or invalid JSON panics.
func parseJson(config *Config, args []string) {
	path := flagx.ConfigPath(args)
	if path == "" {
		return
	}

	file, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.GatewayBaseURL, c.GatewayBaseURL)
	setString(&config.GatewayKeyID, c.GatewayKeyID)
	setString(&config.GatewayKeySecret, c.GatewayKeySecret)
	setString(&config.Currency, c.Currency)
	if c.GatewayTimeout.Duration > 0 {
		config.GatewayTimeout = c.GatewayTimeout.Duration
	}
	if c.StoreTimeout.Duration > 0 {
		config.StoreTimeout = c.StoreTimeout.Duration
	}
	setString(&config.AuthSecret, c.AuthSecret)
	setString(&config.AdminToken, c.AdminToken)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.BackfillSchedule, c.BackfillSchedule)
	setString(&config.LogLevel, c.LogLevel)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
