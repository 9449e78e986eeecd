package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort string
	AppEnv  string

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	DynamoTables   DynamoTables
	S3BucketName   string

	JWTPrivateKeyPath string
	JWTPublicKeyPath  string
	JWTExpiry         time.Duration

	SMTPHost     string
	SMTPPort     string
	SMTPFrom     string
	SMTPUsername string
	SMTPPassword string

	SNSRegion string

	RedisAddr     string // empty disables the Redis queue, falls back to in-memory
	RedisPassword string
	RedisQueueKey string

	QueuePollInterval time.Duration
	QueueBatchSize    int

	AllowedOrigins []string // CORS allowed origins
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Tenants     string
	Members     string
	Templates   string
	Messages    string
	Recipients  string
	AuditEvents string
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort: getEnv("APP_PORT", "3000"),
		AppEnv:  getEnv("APP_ENV", "development"),

		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			Tenants:     getEnv("DYNAMO_TABLE_TENANTS", "tenants"),
			Members:     getEnv("DYNAMO_TABLE_TENANT_MEMBERS", "tenant_members"),
			Templates:   getEnv("DYNAMO_TABLE_TEMPLATES", "notification_templates"),
			Messages:    getEnv("DYNAMO_TABLE_MESSAGES", "notification_messages"),
			Recipients:  getEnv("DYNAMO_TABLE_RECIPIENTS", "recipients"),
			AuditEvents: getEnv("DYNAMO_TABLE_AUDIT_EVENTS", "audit_events"),
		},
		S3BucketName: getEnv("S3_BUCKET_NAME", "propdev-branding"),

		JWTPrivateKeyPath: getEnv("JWT_PRIVATE_KEY_PATH", "./private_key.pem"),
		JWTPublicKeyPath:  getEnv("JWT_PUBLIC_KEY_PATH", "./public_key.pem"),
		JWTExpiry:         time.Duration(getEnvInt("JWT_EXPIRY_DAYS", 7)) * 24 * time.Hour,

		SMTPHost:     getEnv("SMTP_HOST", "localhost"),
		SMTPPort:     getEnv("SMTP_PORT", "1025"),
		SMTPFrom:     getEnv("SMTP_FROM", "noreply@example.com"),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),

		SNSRegion: getEnv("SNS_REGION", "us-east-1"),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisQueueKey: getEnv("REDIS_QUEUE_KEY", "notification:queue"),

		QueuePollInterval: time.Duration(getEnvInt("QUEUE_POLL_INTERVAL_SECONDS", 5)) * time.Second,
		QueueBatchSize:    getEnvInt("QUEUE_BATCH_SIZE", 50),

		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
	}
}

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
