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

	DynamoTables DynamoTables
	S3BucketName string // retention bucket for accepted enrollment audio
	SNSRegion    string

	// TicketTTL is the validity window of an issued ticket.
	TicketTTL time.Duration

	SpeakerEndpoint string
	SpeakerKey      string
	SpeakerTimeout  time.Duration
	// SpeakerRPS caps outbound provider calls to stay inside the API quota.
	SpeakerRPS float64

	// ConfidenceThreshold is the minimum verification/identification confidence
	// that results in a ticket being issued.
	ConfidenceThreshold float64
	// EnrollRejectedCounts pins whether a provider-rejected enrollment sample
	// consumes one of the three attempts. Default false: only accepted samples
	// count.
	EnrollRejectedCounts bool

	AllowedOrigins []string // CORS allowed origins
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Users    string
	Tickets  string
	Profiles string
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
			Users:    getEnv("DYNAMO_TABLE_USERS", "users"),
			Tickets:  getEnv("DYNAMO_TABLE_TICKETS", "tickets"),
			Profiles: getEnv("DYNAMO_TABLE_PROFILES", "speaker_profiles"),
		},
		S3BucketName: getEnv("S3_BUCKET_NAME", "auth-enrollment-audio"),
		SNSRegion:    getEnv("SNS_REGION", "us-east-1"),

		TicketTTL: time.Duration(getEnvInt("TICKET_TTL_SECONDS", 300)) * time.Second,

		SpeakerEndpoint: getEnv("SPEAKER_API_ENDPOINT", "https://api.cognitive.example.com/speaker/v1"),
		SpeakerKey:      getEnv("SPEAKER_API_KEY", ""),
		SpeakerTimeout:  time.Duration(getEnvInt("SPEAKER_TIMEOUT_SECONDS", 10)) * time.Second,
		SpeakerRPS:      getEnvFloat("SPEAKER_RPS", 5),

		ConfidenceThreshold:  getEnvFloat("CONFIDENCE_THRESHOLD", 0.6),
		EnrollRejectedCounts: getEnvBool("ENROLL_REJECTED_COUNTS", false),

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

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
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
