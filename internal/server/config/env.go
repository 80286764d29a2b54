package config

// envPrefix namespaces every environment variable the server reads.
const envPrefix = "TIPJAR_"

// parseEnv overlays secrets and deployment-specific values from the
// environment. Only non-empty variables override the current values.
//
// Recognised variables (all prefixed with TIPJAR_):
//
//	DATABASE_DSN, GATEWAY_KEY_ID, GATEWAY_KEY_SECRET, AUTH_SECRET,
//	ADMIN_TOKEN, S3_ROOT_USER, S3_ROOT_PASSWORD, S3_BUCKET
func parseEnv(config *Config, lookup func(string) (string, bool)) {
	vars := map[string]*string{
		"DATABASE_DSN":       &config.DatabaseDSN,
		"GATEWAY_KEY_ID":     &config.GatewayKeyID,
		"GATEWAY_KEY_SECRET": &config.GatewayKeySecret,
		"AUTH_SECRET":        &config.AuthSecret,
		"ADMIN_TOKEN":        &config.AdminToken,
		"S3_ROOT_USER":       &config.S3RootUser,
		"S3_ROOT_PASSWORD":   &config.S3RootPassword,
		"S3_BUCKET":          &config.S3Bucket,
	}

	for name, dst := range vars {
		if v, ok := lookup(envPrefix + name); ok && v != "" {
			*dst = v
		}
	}
}
