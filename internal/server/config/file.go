package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/reactivities/identity/internal/flagx"
	"github.com/reactivities/identity/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk shape of the configuration file. Pointer fields
// distinguish "absent" from zero values so that a partial file only overrides
// what it names.
type FileConfig struct {
	EndpointAddrHTTP             *string         `json:"endpoint_addr_http" yaml:"endpoint_addr_http"`
	DatabaseDSN                  *string         `json:"database_dsn" yaml:"database_dsn"`
	SecretKey                    *string         `json:"secret_key" yaml:"secret_key"`
	AccessTokenValidityDuration  *timex.Duration `json:"access_token_validity_duration" yaml:"access_token_validity_duration"`
	RefreshTokenValidityDuration *timex.Duration `json:"refresh_token_validity_duration" yaml:"refresh_token_validity_duration"`
	EmailTokenValidityDuration   *timex.Duration `json:"email_token_validity_duration" yaml:"email_token_validity_duration"`
	ClientOrigin                 *string         `json:"client_origin" yaml:"client_origin"`
	ReissueOnRotate              *bool           `json:"reissue_on_rotate" yaml:"reissue_on_rotate"`
	Development                  *bool           `json:"development" yaml:"development"`
	ConfirmationBypassUser       *string         `json:"confirmation_bypass_user" yaml:"confirmation_bypass_user"`
	MailDriver                   *string         `json:"mail_driver" yaml:"mail_driver"`
	MailFromAddress              *string         `json:"mail_from_address" yaml:"mail_from_address"`
	MailFromName                 *string         `json:"mail_from_name" yaml:"mail_from_name"`
	SendGridKey                  *string         `json:"sendgrid_key" yaml:"sendgrid_key"`
	S3RootUser                   *string         `json:"s3_root_user" yaml:"s3_root_user"`
	S3RootPassword               *string         `json:"s3_root_password" yaml:"s3_root_password"`
	S3Bucket                     *string         `json:"s3_bucket" yaml:"s3_bucket"`
	S3Region                     *string         `json:"s3_region" yaml:"s3_region"`
	S3BaseEndpoint               *string         `json:"s3_base_endpoint" yaml:"s3_base_endpoint"`
}

// parseFile loads the file named by -c/-config, if any, and overlays it on
// config. Files ending in .yaml or .yml are decoded as YAML, anything else as
// JSON. Unreadable or malformed files panic: the server cannot start with a
// configuration it did not understand.
func parseFile(config *Config) {
	path := flagx.ConfigPath(os.Args[1:])
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
	setString(&c.EndpointAddrHTTP, fc.EndpointAddrHTTP)
	setString(&c.DatabaseDSN, fc.DatabaseDSN)
	setString(&c.SecretKey, fc.SecretKey)
	if fc.AccessTokenValidityDuration != nil {
		c.AccessTokenValidityDuration = fc.AccessTokenValidityDuration.Duration
	}
	if fc.RefreshTokenValidityDuration != nil {
		c.RefreshTokenValidityDuration = fc.RefreshTokenValidityDuration.Duration
	}
	if fc.EmailTokenValidityDuration != nil {
		c.EmailTokenValidityDuration = fc.EmailTokenValidityDuration.Duration
	}
	setString(&c.ClientOrigin, fc.ClientOrigin)
	if fc.ReissueOnRotate != nil {
		c.ReissueOnRotate = *fc.ReissueOnRotate
	}
	if fc.Development != nil {
		c.Development = *fc.Development
	}
	setString(&c.ConfirmationBypassUser, fc.ConfirmationBypassUser)
	setString(&c.MailDriver, fc.MailDriver)
	setString(&c.MailFromAddress, fc.MailFromAddress)
	setString(&c.MailFromName, fc.MailFromName)
	setString(&c.SendGridKey, fc.SendGridKey)
	setString(&c.S3RootUser, fc.S3RootUser)
	setString(&c.S3RootPassword, fc.S3RootPassword)
	setString(&c.S3Bucket, fc.S3Bucket)
	setString(&c.S3Region, fc.S3Region)
	setString(&c.S3BaseEndpoint, fc.S3BaseEndpoint)
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
