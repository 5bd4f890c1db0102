package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/sortify/internal/flagx"
	"github.com/dmitrijs2005/sortify/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk shape of the configuration. Durations accept
// both "15m" strings and integer nanoseconds. Zero values leave the
// current setting untouched.
type FileConfig struct {
	EndpointAddrHTTP        string         `json:"endpoint_addr_http" yaml:"endpoint_addr_http"`
	DatabaseDSN             string         `json:"database_dsn" yaml:"database_dsn"`
	SecretKey               string         `json:"secret_key" yaml:"secret_key"`
	LogLevel                string         `json:"log_level" yaml:"log_level"`
	CORSOrigins             []string       `json:"cors_origins" yaml:"cors_origins"`
	PresignValidityDuration timex.Duration `json:"presign_validity_duration" yaml:"presign_validity_duration"`
	UploadRetries           *int           `json:"upload_retries" yaml:"upload_retries"`
	S3RootUser              string         `json:"s3_root_user" yaml:"s3_root_user"`
	S3RootPassword          string         `json:"s3_root_password" yaml:"s3_root_password"`
	S3Bucket                string         `json:"s3_bucket" yaml:"s3_bucket"`
	S3Region                string         `json:"s3_region" yaml:"s3_region"`
	S3BaseEndpoint          string         `json:"s3_base_endpoint" yaml:"s3_base_endpoint"`
}

// parseFile loads the file named by -c/-config, choosing the decoder by
// extension (.yaml/.yml, otherwise JSON). No flag means nothing to load.
func parseFile(config *Config, args []string) error {
	path := flagx.ConfigFileFlag(args)
	if path == "" {
		return nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	fc := &FileConfig{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(raw, fc)
	default:
		err = json.Unmarshal(raw, fc)
	}
	if err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}

	fc.apply(config)
	return nil
}

func (fc *FileConfig) apply(config *Config) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&config.EndpointAddrHTTP, fc.EndpointAddrHTTP)
	set(&config.DatabaseDSN, fc.DatabaseDSN)
	set(&config.SecretKey, fc.SecretKey)
	set(&config.LogLevel, fc.LogLevel)
	set(&config.S3RootUser, fc.S3RootUser)
	set(&config.S3RootPassword, fc.S3RootPassword)
	set(&config.S3Bucket, fc.S3Bucket)
	set(&config.S3Region, fc.S3Region)
	set(&config.S3BaseEndpoint, fc.S3BaseEndpoint)

	if len(fc.CORSOrigins) > 0 {
		config.CORSOrigins = fc.CORSOrigins
	}
	if fc.PresignValidityDuration.Duration > 0 {
		config.PresignValidityDuration = fc.PresignValidityDuration.Duration
	}
	if fc.UploadRetries != nil {
		config.UploadRetries = *fc.UploadRetries
	}
}
