package config

import (
	"strconv"
	"strings"
	"time"
)

// parseEnv overlays values from environment variables. PORT is honoured
// for hosting providers that only hand out a port; ADDRESS wins over it.
func parseEnv(config *Config, lookup func(string) (string, bool)) {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	if port, ok := lookup("PORT"); ok && port != "" {
		config.EndpointAddrHTTP = ":" + port
	}
	str("ADDRESS", &config.EndpointAddrHTTP)
	str("DATABASE_URL", &config.DatabaseDSN)
	str("SECRET_KEY", &config.SecretKey)
	str("LOG_LEVEL", &config.LogLevel)
	str("S3_ROOT_USER", &config.S3RootUser)
	str("S3_ROOT_PASSWORD", &config.S3RootPassword)
	str("S3_BUCKET", &config.S3Bucket)
	str("S3_REGION", &config.S3Region)
	str("S3_BASE_ENDPOINT", &config.S3BaseEndpoint)

	if v, ok := lookup("CORS_ORIGINS"); ok && v != "" {
		config.CORSOrigins = splitList(v)
	}
	if v, ok := lookup("PRESIGN_TTL"); ok {
		if d, err := time.ParseDuration(v); err == nil {
			config.PresignValidityDuration = d
		}
	}
	if v, ok := lookup("UPLOAD_RETRIES"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			config.UploadRetries = n
		}
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
