package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// UpdatePolicy controls which statuses allow submitter edits.
type UpdatePolicy string

const (
	UpdatePolicyStrict  UpdatePolicy = "strict"  // draft only
	UpdatePolicyLenient UpdatePolicy = "lenient" // draft or rejected
)

type Config struct {
	Port        string
	JWTSecret   string
	JWTExpiry   int // hours
	MongoURI    string
	DBName      string
	SkipAuth    bool
	Environment string
	CORSOrigins string

	// Pagination
	DefaultPageSize int64
	MaxPageSize     int64

	// Crop target validation
	MinYear int
	MaxYear int

	// Workflow policy knobs
	UpdatePolicy UpdatePolicy
	AllowDelete  bool

	// Audit retention
	AuditRetentionDays int

	// Rate limiting (sliding windows)
	LoginRateLimitPerIP    int
	LoginRateLimitPerUser  int
	RegisterRateLimitPerIP int
	RateLimitWindowSec     int
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	policy := UpdatePolicy(getEnv("UPDATE_POLICY", string(UpdatePolicyStrict)))
	if policy != UpdatePolicyStrict && policy != UpdatePolicyLenient {
		log.Printf("Unknown UPDATE_POLICY %q, falling back to strict", policy)
		policy = UpdatePolicyStrict
	}

	return &Config{
		Port:        getEnv("PORT", "8080"),
		JWTSecret:   getEnv("JWT_SECRET", "secret"),
		JWTExpiry:   getEnvInt("JWT_EXPIRY_HOURS", 24),
		MongoURI:    getEnv("MONGO_URI", "mongodb://localhost:27017"),
		DBName:      getEnv("DB_NAME", "go-agri"),
		SkipAuth:    getEnv("SKIP_AUTH", "false") == "true",
		Environment: getEnv("ENVIRONMENT", "development"),
		CORSOrigins: getEnv("CORS_ORIGINS", "http://localhost:3000"),

		DefaultPageSize: int64(getEnvInt("DEFAULT_PAGE_SIZE", 20)),
		MaxPageSize:     int64(getEnvInt("MAX_PAGE_SIZE", 100)),

		MinYear: getEnvInt("MIN_YEAR", 2000),
		MaxYear: getEnvInt("MAX_YEAR", 2100),

		UpdatePolicy: policy,
		AllowDelete:  getEnv("ALLOW_DELETE", "false") == "true",

		AuditRetentionDays: getEnvInt("AUDIT_RETENTION_DAYS", 365),

		LoginRateLimitPerIP:    getEnvInt("LOGIN_RATE_LIMIT_PER_IP", 20),
		LoginRateLimitPerUser:  getEnvInt("LOGIN_RATE_LIMIT_PER_USER", 5),
		RegisterRateLimitPerIP: getEnvInt("REGISTER_RATE_LIMIT_PER_IP", 5),
		RateLimitWindowSec:     getEnvInt("RATE_LIMIT_WINDOW_SEC", 300),
	}, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
		log.Printf("Invalid integer for %s, using default %d", key, fallback)
	}
	return fallback
}
