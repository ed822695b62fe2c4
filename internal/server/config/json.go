package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/storegate/internal/flagx"
	"github.com/dmitrijs2005/storegate/internal/timex"
)

// JsonConfig is the on-disk shape of the JSON config file. Duration fields
// accept "10s" style strings or integer nanoseconds.
type JsonConfig struct {
	HTTPAddr    string `json:"http_addr"`
	DatabaseDSN string `json:"database_dsn"`
	SecretKey   string `json:"secret_key"`
	LogLevel    string `json:"log_level"`

	AdminEmail    string `json:"admin_email"`
	AdminPassword string `json:"admin_password"`

	SMTPHost          string         `json:"smtp_host"`
	SMTPPort          int            `json:"smtp_port"`
	SMTPUser          string         `json:"smtp_user"`
	SMTPPassword      string         `json:"smtp_password"`
	MailFromName      string         `json:"mail_from_name"`
	MailRatePerSecond float64        `json:"mail_rate_per_second"`
	MailQueueSize     int            `json:"mail_queue_size"`
	MailDrainTimeout  timex.Duration `json:"mail_drain_timeout"`

	S3AccessKey     string `json:"s3_access_key"`
	S3SecretKey     string `json:"s3_secret_key"`
	S3Bucket        string `json:"s3_bucket"`
	S3Region        string `json:"s3_region"`
	S3BaseEndpoint  string `json:"s3_base_endpoint"`
	S3PublicBaseURL string `json:"s3_public_base_url"`
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// parseJson overlays Config with the file named by -c/-config. Keys missing
// from the file leave the current value alone. Unreadable files and invalid
// JSON panic.
func parseJson(config *Config) {
	path := flagx.ConfigPath(os.Args[1:])
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

	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.LogLevel, c.LogLevel)

	setString(&config.AdminEmail, c.AdminEmail)
	setString(&config.AdminPassword, c.AdminPassword)

	setString(&config.SMTPHost, c.SMTPHost)
	if c.SMTPPort > 0 {
		config.SMTPPort = c.SMTPPort
	}
	setString(&config.SMTPUser, c.SMTPUser)
	setString(&config.SMTPPassword, c.SMTPPassword)
	setString(&config.MailFromName, c.MailFromName)
	if c.MailRatePerSecond > 0 {
		config.MailRatePerSecond = c.MailRatePerSecond
	}
	if c.MailQueueSize > 0 {
		config.MailQueueSize = c.MailQueueSize
	}
	if c.MailDrainTimeout.Duration > 0 {
		config.MailDrainTimeout = c.MailDrainTimeout.Duration
	}

	setString(&config.S3AccessKey, c.S3AccessKey)
	setString(&config.S3SecretKey, c.S3SecretKey)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.S3PublicBaseURL, c.S3PublicBaseURL)
}
