package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmitrijs2005/studioportal/internal/flagx"
	"github.com/dmitrijs2005/studioportal/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk shape of the configuration. Durations use
// timex.Duration so files may write "15m" or integer nanoseconds. Only keys
// present in the file override the current values.
type FileConfig struct {
	HTTPAddr                     *string         `json:"http_addr" yaml:"http_addr"`
	GRPCAddr                     *string         `json:"grpc_addr" yaml:"grpc_addr"`
	PublicBaseURL                *string         `json:"public_base_url" yaml:"public_base_url"`
	DatabaseDSN                  *string         `json:"database_dsn" yaml:"database_dsn"`
	SecretKey                    *string         `json:"secret_key" yaml:"secret_key"`
	DownloadSigningKey           *string         `json:"download_signing_key" yaml:"download_signing_key"`
	AccessTokenValidityDuration  *timex.Duration `json:"access_token_validity_duration" yaml:"access_token_validity_duration"`
	RefreshTokenValidityDuration *timex.Duration `json:"refresh_token_validity_duration" yaml:"refresh_token_validity_duration"`
	MagicLinkBaseURL             *string         `json:"magic_link_base_url" yaml:"magic_link_base_url"`
	MagicLinkTTL                 *timex.Duration `json:"magic_link_ttl" yaml:"magic_link_ttl"`
	DownloadLinkTTL              *timex.Duration `json:"download_link_ttl" yaml:"download_link_ttl"`
	S3RootUser                   *string         `json:"s3_root_user" yaml:"s3_root_user"`
	S3RootPassword               *string         `json:"s3_root_password" yaml:"s3_root_password"`
	S3Bucket                     *string         `json:"s3_bucket" yaml:"s3_bucket"`
	S3Region                     *string         `json:"s3_region" yaml:"s3_region"`
	S3BaseEndpoint               *string         `json:"s3_base_endpoint" yaml:"s3_base_endpoint"`
	ResendAPIKey                 *string         `json:"resend_api_key" yaml:"resend_api_key"`
	EmailFrom                    *string         `json:"email_from" yaml:"email_from"`
	AdminEmail                   *string         `json:"admin_email" yaml:"admin_email"`
	StripeWebhookSecret          *string         `json:"stripe_webhook_secret" yaml:"stripe_webhook_secret"`
	NotionToken                  *string         `json:"notion_token" yaml:"notion_token"`
	NotionDatabaseID             *string         `json:"notion_database_id" yaml:"notion_database_id"`
	OTelEndpoint                 *string         `json:"otel_endpoint" yaml:"otel_endpoint"`
	LogLevel                     *string         `json:"log_level" yaml:"log_level"`
}

// parseFile overlays the file named by -c/-config onto config. Files ending
// in .yaml or .yml are decoded as YAML, everything else as JSON. An
// unreadable or malformed file panics.
func parseFile(config *Config, args []string) {
	path := flagx.ConfigFileFlag(args)
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	fc := &FileConfig{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, fc)
	default:
		err = json.Unmarshal(data, fc)
	}
	if err != nil {
		panic(err)
	}

	fc.apply(config)
}

func (fc *FileConfig) apply(c *Config) {
	setString(&c.HTTPAddr, fc.HTTPAddr)
	setString(&c.GRPCAddr, fc.GRPCAddr)
	setString(&c.PublicBaseURL, fc.PublicBaseURL)
	setString(&c.DatabaseDSN, fc.DatabaseDSN)
	setString(&c.SecretKey, fc.SecretKey)
	setString(&c.DownloadSigningKey, fc.DownloadSigningKey)
	setDuration(&c.AccessTokenValidityDuration, fc.AccessTokenValidityDuration)
	setDuration(&c.RefreshTokenValidityDuration, fc.RefreshTokenValidityDuration)
	setString(&c.MagicLinkBaseURL, fc.MagicLinkBaseURL)
	setDuration(&c.MagicLinkTTL, fc.MagicLinkTTL)
	setDuration(&c.DownloadLinkTTL, fc.DownloadLinkTTL)
	setString(&c.S3RootUser, fc.S3RootUser)
	setString(&c.S3RootPassword, fc.S3RootPassword)
	setString(&c.S3Bucket, fc.S3Bucket)
	setString(&c.S3Region, fc.S3Region)
	setString(&c.S3BaseEndpoint, fc.S3BaseEndpoint)
	setString(&c.ResendAPIKey, fc.ResendAPIKey)
	setString(&c.EmailFrom, fc.EmailFrom)
	setString(&c.AdminEmail, fc.AdminEmail)
	setString(&c.StripeWebhookSecret, fc.StripeWebhookSecret)
	setString(&c.NotionToken, fc.NotionToken)
	setString(&c.NotionDatabaseID, fc.NotionDatabaseID)
	setString(&c.OTelEndpoint, fc.OTelEndpoint)
	setString(&c.LogLevel, fc.LogLevel)
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v *timex.Duration) {
	if v != nil {
		*dst = v.Duration
	}
}
