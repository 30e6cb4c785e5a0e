package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
	StoreMongoDB  = "mongodb"

	TransportMemory = "memory"
	TransportKafka  = "kafka"
)

type Config struct {
	HTTPPort string
	LogLevel string

	StoreDriver string
	DatabaseURL string
	SQLitePath  string
	MongoURI    string
	MongoDB     string

	RedisAddr string
	CacheTTL  time.Duration

	NotifyTransport string
	KafkaBrokers    []string
	KafkaTopic      string
	KafkaGroupID    string

	ClickHouseAddr string
	ClickHouseDB   string

	UploadJournalPath string

	LoadChunkSize    int
	ProcessBatchSize int
	MaxWorkers       int
	ProcessInterval  time.Duration
}

// LoadConfig lee el entorno; un fichero .env es opcional.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	cfg := &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		StoreDriver:     strings.ToLower(getEnv("STORE_DRIVER", StorePostgres)),
		DatabaseURL:     databaseURL(),
		SQLitePath:      getEnv("SQLITE_PATH", "./boletolab.db"),
		MongoURI:        getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:         getEnv("MONGO_DB", "boletolab"),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		NotifyTransport: strings.ToLower(getEnv("NOTIFY_TRANSPORT", TransportMemory)),
		KafkaBrokers:    strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
		KafkaTopic:      getEnv("KAFKA_TOPIC", "boleto-issued"),
		KafkaGroupID:    getEnv("KAFKA_GROUP_ID", "boletolab-mailer"),
		ClickHouseAddr:  os.Getenv("CLICKHOUSE_ADDR"),
		ClickHouseDB:    getEnv("CLICKHOUSE_DB", "default"),

		UploadJournalPath: os.Getenv("UPLOAD_JOURNAL_PATH"),
	}

	var err error
	if cfg.LoadChunkSize, err = getEnvAsInt("LOAD_CHUNK_SIZE", 100000); err != nil {
		return nil, err
	}
	if cfg.ProcessBatchSize, err = getEnvAsInt("PROCESS_BATCH_SIZE", 100000); err != nil {
		return nil, err
	}
	if cfg.MaxWorkers, err = getEnvAsInt("MAX_WORKERS", 1000); err != nil {
		return nil, err
	}
	if cfg.ProcessInterval, err = getEnvAsDuration("PROCESS_INTERVAL", 0); err != nil {
		return nil, err
	}
	if cfg.CacheTTL, err = getEnvAsDuration("CACHE_TTL", 2*time.Minute); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreDriver {
	case StorePostgres, StoreSQLite, StoreMongoDB:
	default:
		return fmt.Errorf("invalid STORE_DRIVER %q: expected postgres, sqlite or mongodb", c.StoreDriver)
	}
	switch c.NotifyTransport {
	case TransportMemory, TransportKafka:
	default:
		return fmt.Errorf("invalid NOTIFY_TRANSPORT %q: expected memory or kafka", c.NotifyTransport)
	}
	if c.LoadChunkSize <= 0 || c.ProcessBatchSize <= 0 || c.MaxWorkers <= 0 {
		return errors.New("LOAD_CHUNK_SIZE, PROCESS_BATCH_SIZE and MAX_WORKERS must be positive")
	}
	if c.ProcessInterval < 0 {
		return errors.New("PROCESS_INTERVAL cannot be negative")
	}
	return nil
}

// databaseURL prioriza DATABASE_URL y si no la compone con POSTGRES_*.
func databaseURL() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s",
		getEnv("POSTGRES_USER", "postgres"),
		getEnv("POSTGRES_PASSWORD", "postgres"),
		getEnv("POSTGRES_HOST", "localhost"),
		getEnv("POSTGRES_PORT", "5432"),
		getEnv("POSTGRES_DB", "debts"),
	)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvAsInt(key string, defaultValue int) (int, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: expected an integer, got '%s'", key, valueStr)
	}
	return value, nil
}

func getEnvAsDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: expected a duration, got '%s'", key, valueStr)
	}
	return value, nil
}
