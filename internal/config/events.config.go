package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type AppConfig struct {
	Env      string
	HTTPAddr string
	GRPCAddr string

	StoreDriver string // postgres | memory
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string

	RedisAddr string
	RedisPass string

	EventsBackend string // redis | kafka | none
	KafkaBrokers  []string
	KafkaTopic    string
	RedisChannel  string

	JWTPublicKeyPath string
	JWTKeyPaths      map[string]string // kid -> PEM path
	JWTIssuer        string
	JWTAudience      string

	CORSOrigins        []string
	TrustProxy         bool
	RateLimitPerMinute int
	ResultCacheTTL     time.Duration
	SeedFile           string

	Limits Limits
}

// Limits are the two admission caps. They share a default but are
// configured independently.
type Limits struct {
	MaxActivePerUser         int
	AutoAcceptPerTempleEvent int
}

func DefaultLimits() Limits {
	return Limits{MaxActivePerUser: 3, AutoAcceptPerTempleEvent: 3}
}

func Load() AppConfig {
	return AppConfig{
		Env:      getEnv("APP_ENV", "production"),
		HTTPAddr: getEnv("HTTP_ADDR", ":8040"),
		GRPCAddr: getEnv("GRPC_ADDR", ":8041"),

		StoreDriver: getEnv("STORE_DRIVER", "postgres"),
		DBHost:      getEnv("DB_HOST", "localhost"),
		DBPort:      getEnv("DB_PORT", "5432"),
		DBUser:      getEnv("DB_USER", "postgres"),
		DBPassword:  getEnv("DB_PASSWORD", ""),
		DBName:      getEnv("DB_NAME", "events"),

		RedisAddr: getEnv("REDIS_ADDR", "redis:6379"),
		RedisPass: getEnv("REDIS_PASS", ""),

		EventsBackend: getEnv("EVENTS_BACKEND", "redis"),
		KafkaBrokers:  getEnvSlice("KAFKA_BROKERS", "kafka:9092"),
		KafkaTopic:    getEnv("KAFKA_TOPIC", "registration-events"),
		RedisChannel:  getEnv("REDIS_CHANNEL", "events.registrations"),

		JWTPublicKeyPath: getEnv("JWT_PUBLIC_KEY_PATH", "secrets/jwt_public.pem"),
		JWTKeyPaths:      getEnvMap("JWT_EXTRA_KEYS"),
		JWTIssuer:        getEnv("JWT_ISSUER", "temple-auth"),
		JWTAudience:      getEnv("JWT_AUDIENCE", "events-service"),

		CORSOrigins:        getEnvSlice("CORS_ORIGINS", "http://localhost:3000"),
		TrustProxy:         getEnvBool("TRUST_PROXY", false),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 120),
		ResultCacheTTL:     getEnvDuration("RESULT_CACHE_TTL", time.Hour),
		SeedFile:           getEnv("SEED_FILE", "seed/events.yaml"),

		Limits: Limits{
			MaxActivePerUser:         getEnvInt("MAX_ACTIVE_REGISTRATIONS_PER_USER", 3),
			AutoAcceptPerTempleEvent: getEnvInt("AUTO_ACCEPT_PER_TEMPLE_EVENT", 3),
		},
	}
}

// DatabaseURL is the pgx connection string built from the DB_* settings.
func (c AppConfig) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

// getEnvMap reads "k1=v1,k2=v2". Entries without "=" are skipped.
func getEnvMap(key string) map[string]string {
	out := map[string]string{}
	for _, pair := range getEnvSlice(key, "") {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(k) == "" {
			continue
		}
		out[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return out
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvSlice(key, fallback string) []string {
	val := getEnv(key, fallback)
	parts := strings.Split(val, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
