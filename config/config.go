package config

import (
	"context"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Features toggles the optional screens of the terminal. All three are on in
// the full build; turning them off reproduces the earlier, smaller terminal.
type Features struct {
	Auth         bool `json:"auth"`
	Invoicing    bool `json:"invoicing"`
	ProfitReport bool `json:"profit_report"`
}

// Config holds the loaded configuration
type Config struct {
	Port           string
	Env            string
	POSAPIURL      string
	POSAPITimeout  time.Duration
	DefaultSeller  string
	HistoryLimit   int
	Features       Features
	RedisURL       string
	IdempotencyTTL time.Duration
	CORSOrigins    []string
	RateLimitRPM   int
	SalesTopicARN  string

	CloudWatchEnabled bool
	MetricsNamespace  string
	LogGroup          string
	UseSecrets        bool
	SecretsPrefix     string
}

// Load reads the optional .env file and the process environment.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return Config{
		Port:           getEnv("PORT", "8090"),
		Env:            getEnv("APP_ENV", "development"),
		POSAPIURL:      strings.TrimRight(getEnv("POS_API_URL", "http://localhost:5000/api"), "/"),
		POSAPITimeout:  getDuration("POS_API_TIMEOUT", 15*time.Second),
		DefaultSeller:  getEnv("DEFAULT_SELLER", "Sistema"),
		HistoryLimit:   getInt("SALES_HISTORY_LIMIT", 50),
		Features: Features{
			Auth:         getBool("FEATURE_AUTH", true),
			Invoicing:    getBool("FEATURE_INVOICING", true),
			ProfitReport: getBool("FEATURE_PROFIT_REPORT", true),
		},
		RedisURL:       getEnv("REDIS_URL", ""),
		IdempotencyTTL: getDuration("IDEMPOTENCY_TTL", 24*time.Hour),
		CORSOrigins:    splitList(getEnv("CORS_ORIGINS", "http://localhost:5173,http://localhost:3000")),
		RateLimitRPM:   getInt("RATE_LIMIT_RPM", 300),
		SalesTopicARN:  getEnv("SNS_SALES_TOPIC_ARN", ""),

		CloudWatchEnabled: getBool("CLOUDWATCH_ENABLED", false),
		MetricsNamespace:  getEnv("CLOUDWATCH_NAMESPACE", "PuntoDeVenta"),
		LogGroup:          getEnv("CLOUDWATCH_LOG_GROUP", "/pos/terminal"),
		UseSecrets:        getBool("AWS_USE_SECRETS", false),
		SecretsPrefix:     getEnv("SECRETS_PREFIX", "pos-terminal/"),
	}
}

// SecretSource reads named secrets, such as Secrets Manager.
type SecretSource interface {
	GetSecret(ctx context.Context, name string) (string, error)
}

// ApplySecrets overrides the connection settings that may carry credentials
// with the values stored under SecretsPrefix. Missing secrets keep the
// environment value.
func ApplySecrets(ctx context.Context, cfg *Config, secrets SecretSource) {
	for name, field := range map[string]*string{
		"REDIS_URL":           &cfg.RedisURL,
		"SNS_SALES_TOPIC_ARN": &cfg.SalesTopicARN,
	} {
		v, err := secrets.GetSecret(ctx, cfg.SecretsPrefix+name)
		if err != nil || v == "" {
			continue
		}
		*field = strings.TrimSpace(v)
	}
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	b, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return b
}

func getInt(key string, fallback int) int {
	n, err := strconv.Atoi(getEnv(key, ""))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func getDuration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(getEnv(key, ""))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
