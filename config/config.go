package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Catalog sources
const (
	CatalogEmbedded = "embedded"
	CatalogPostgres = "postgres"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Observ   ObservabilityConfig
	Business BusinessConfig
}

type ServerConfig struct {
	Port string
	Env  string
}

// DatabaseConfig points at the sales archive. An empty URL disables it.
type DatabaseConfig struct {
	URL string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// KafkaConfig configures POS events. No brokers disables publishing.
type KafkaConfig struct {
	Brokers       []string
	TopicEvents   string
	ConsumerGroup string
}

type ObservabilityConfig struct {
	JaegerEndpoint string
	PrometheusPort string
}

type BusinessConfig struct {
	ProfitMargin      decimal.Decimal
	LowStockThreshold int
	GridColumns       int
	CatalogSource     string
}

func Load() *Config {
	_ = godotenv.Load()

	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	threshold, err := strconv.Atoi(getEnv("LOW_STOCK_THRESHOLD", "5"))
	if err != nil || threshold < 0 {
		threshold = 5
	}
	columns, err := strconv.Atoi(getEnv("NAVIGATOR_GRID_COLUMNS", "4"))
	if err != nil || columns < 1 {
		columns = 4
	}
	margin, err := decimal.NewFromString(getEnv("PROFIT_MARGIN", "0.30"))
	if err != nil {
		margin = decimal.RequireFromString("0.30")
	}
	source := getEnv("CATALOG_SOURCE", CatalogEmbedded)
	if source != CatalogPostgres {
		source = CatalogEmbedded
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
			Env:  getEnv("ENV", "development"),
		},
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Kafka: KafkaConfig{
			Brokers:       splitList(os.Getenv("KAFKA_BROKERS")),
			TopicEvents:   getEnv("KAFKA_TOPIC_POS_EVENTS", "pos-events"),
			ConsumerGroup: getEnv("KAFKA_CONSUMER_GROUP", "pos-service-group"),
		},
		Observ: ObservabilityConfig{
			JaegerEndpoint: getEnv("JAEGER_ENDPOINT", "http://localhost:14268/api/traces"),
			PrometheusPort: getEnv("PROMETHEUS_PORT", "9090"),
		},
		Business: BusinessConfig{
			ProfitMargin:      margin,
			LowStockThreshold: threshold,
			GridColumns:       columns,
			CatalogSource:     source,
		},
	}

	zap.L().Info("Config loaded",
		zap.String("env", cfg.Server.Env),
		zap.String("port", cfg.Server.Port),
		zap.Bool("archive", cfg.Database.URL != ""),
		zap.Bool("events", len(cfg.Kafka.Brokers) > 0))
	return cfg
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
