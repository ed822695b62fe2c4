package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// dotenvFile is loaded into the process environment when present. Variables
// already set in the environment are not overridden.
var dotenvFile = ".env"

// lookupEnv treats an empty variable as unset.
func lookupEnv(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	return v, ok && v != ""
}

func envString(dst *string, keys ...string) {
	for _, k := range keys {
		if v, ok := lookupEnv(k); ok {
			*dst = v
			return
		}
	}
}

func envInt(dst *int, key string) {
	if v, ok := lookupEnv(key); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			panic(key + ": " + err.Error())
		}
		*dst = n
	}
}

func envFloat(dst *float64, key string) {
	if v, ok := lookupEnv(key); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			panic(key + ": " + err.Error())
		}
		*dst = f
	}
}

func envDuration(dst *time.Duration, key string) {
	if v, ok := lookupEnv(key); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			panic(key + ": " + err.Error())
		}
		*dst = d
	}
}

// parseEnv overlays Config with environment variables. PORT is honored for
// platforms that only hand out a port number; HTTP_ADDR wins over it.
// Malformed numeric or duration values panic.
func parseEnv(config *Config) {
	_ = godotenv.Load(dotenvFile)

	if port, ok := lookupEnv("PORT"); ok {
		config.HTTPAddr = ":" + port
	}
	envString(&config.HTTPAddr, "HTTP_ADDR")
	envString(&config.DatabaseDSN, "DATABASE_URL")
	envString(&config.SecretKey, "JWT_SECRET")
	envString(&config.LogLevel, "LOG_LEVEL")

	envString(&config.AdminEmail, "ADMIN_EMAIL")
	envString(&config.AdminPassword, "ADMIN_PASSWORD")

	envString(&config.SMTPHost, "SMTP_SERVER", "SMTP_HOST")
	envInt(&config.SMTPPort, "SMTP_PORT")
	envString(&config.SMTPUser, "SMTP_USER")
	envString(&config.SMTPPassword, "SMTP_PASSWORD")
	envString(&config.MailFromName, "FROM_NAME")
	envFloat(&config.MailRatePerSecond, "MAIL_RATE_PER_SECOND")
	envInt(&config.MailQueueSize, "MAIL_QUEUE_SIZE")
	envDuration(&config.MailDrainTimeout, "MAIL_DRAIN_TIMEOUT")

	envString(&config.S3AccessKey, "S3_ACCESS_KEY")
	envString(&config.S3SecretKey, "S3_SECRET_KEY")
	envString(&config.S3Bucket, "S3_BUCKET")
	envString(&config.S3Region, "S3_REGION")
	envString(&config.S3BaseEndpoint, "S3_BASE_ENDPOINT")
	envString(&config.S3PublicBaseURL, "S3_PUBLIC_BASE_URL")
}
