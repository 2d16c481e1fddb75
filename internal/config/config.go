package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Store drivers.
const (
	StoreDynamo = "dynamo"
	StoreMongo  = "mongo"
	StoreMemory = "memory"
)

// DefaultSecretKey signs tokens when SECRET_KEY is unset. Development only.
const DefaultSecretKey = "dev-secret-key-change-in-production"

// Mail drivers.
const (
	MailSMTP    = "smtp"
	MailMailgun = "mailgun"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort       string
	AppEnv        string
	PublicBaseURL string
	SecretKey     string
	TokenMaxAge   time.Duration

	StoreDriver          string
	AWSRegion            string
	AWSEndpointURL       string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID       string
	AWSSecretKey         string
	DynamoSubscribersTbl string
	MongoURI             string
	DatabaseName         string

	MailDriver     string
	MailServer     string
	MailPort       int
	MailUseTLS     bool
	MailUseSSL     bool
	MailUsername   string
	MailPassword   string
	MailSender     string
	MailTimeout    time.Duration
	MailgunDomain  string
	MailgunAPIKey  string
	MailgunAPIBase string // empty uses the US endpoint

	SNSRegion   string
	SNSTopicARN string // empty disables lifecycle events

	S3BucketName   string
	S3ExportPrefix string

	SiteConfigPath string
	AllowedOrigins []string // CORS allowed origins
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort:       getEnv("APP_PORT", getEnv("PORT", "5000")),
		AppEnv:        getEnv("APP_ENV", "development"),
		PublicBaseURL: strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:5000"), "/"),
		SecretKey:     getEnv("SECRET_KEY", DefaultSecretKey),
		TokenMaxAge:   time.Duration(getEnvPositiveInt("TOKEN_MAX_AGE_SECONDS", 3600)) * time.Second,

		StoreDriver:          strings.ToLower(getEnv("STORE_DRIVER", StoreDynamo)),
		AWSRegion:            getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL:       getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID:       getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:         getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoSubscribersTbl: getEnv("DYNAMO_TABLE_SUBSCRIBERS", "subscribers"),
		MongoURI:             getEnv("MONGO_URI", "mongodb://localhost:27017/"),
		DatabaseName:         getEnv("DATABASE_NAME", "newsletter"),

		MailDriver:     strings.ToLower(getEnv("MAIL_DRIVER", MailSMTP)),
		MailServer:     getEnv("MAIL_SERVER", "email-smtp.us-east-2.amazonaws.com"),
		MailPort:       getEnvInt("MAIL_PORT", 587),
		MailUseTLS:     getEnvBool("MAIL_USE_TLS", true),
		MailUseSSL:     getEnvBool("MAIL_USE_SSL", false),
		MailUsername:   getEnv("SES_SMTP_USERNAME", getEnv("MAIL_USERNAME", "")),
		MailPassword:   getEnv("SES_SMTP_PASSWORD", getEnv("MAIL_PASSWORD", "")),
		MailSender:     getEnv("MAIL_DEFAULT_SENDER", "noreply@yourdomain.com"),
		MailTimeout:    time.Duration(getEnvInt("MAIL_TIMEOUT_SECONDS", 15)) * time.Second,
		MailgunDomain:  getEnv("MAILGUN_DOMAIN", ""),
		MailgunAPIKey:  getEnv("MAILGUN_API_KEY", ""),
		MailgunAPIBase: getEnv("MAILGUN_API_BASE", ""),

		SNSRegion:   getEnv("SNS_REGION", getEnv("AWS_REGION", "us-east-1")),
		SNSTopicARN: getEnv("SNS_TOPIC_ARN", ""),

		S3BucketName:   getEnv("S3_BUCKET_NAME", "newsletter-exports"),
		S3ExportPrefix: getEnv("S3_EXPORT_PREFIX", "exports/"),

		SiteConfigPath: getEnv("SITE_CONFIG_PATH", ""),
		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
	}
}

// IsProduction reports whether the app runs with APP_ENV=production.
func (c *Config) IsProduction() bool { return c.AppEnv == "production" }

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

// getEnvPositiveInt is getEnvInt that also falls back on zero or negative values.
func getEnvPositiveInt(key string, fallback int) int {
	if n := getEnvInt(key, fallback); n > 0 {
		return n
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
