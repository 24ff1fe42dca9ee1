package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"chat-realtime/pkg/logger"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	WebSocket WebSocketConfig
	Game      GameConfig
	Kafka     KafkaConfig
	RateLimit RateLimitConfig
	Logger    logger.Config
	Metrics   MetricsConfig
}

type ServerConfig struct {
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	Mode         string // gin mode: debug, release or test
}

type DatabaseConfig struct {
	Driver     string // postgres, mysql or sqlite
	Host       string
	Port       string
	User       string
	Password   string
	DBName     string
	SSLMode    string
	SQLitePath string
}

// RedisConfig is empty when URL is empty, which disables the presence mirror
// and the rate limiter
type RedisConfig struct {
	URL          string
	MaxRetries   int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolSize     int
	MinIdleConns int
}

type JWTConfig struct {
	Secret string
}

type WebSocketConfig struct {
	AllowedOrigins []string
	// AllowAnonymous accepts a bare ?userId= query parameter instead of a token
	AllowAnonymous bool
	SendBuffer     int
	MaxMessageSize int64
}

type GameConfig struct {
	SessionTTL    time.Duration
	IdleTTL       time.Duration
	SweepInterval time.Duration
}

type KafkaConfig struct {
	Brokers       []string
	ResultsTopic  string
	MessagesTopic string
	GroupID       string
}

// Enabled reports whether any broker is configured
func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

type MetricsConfig struct {
	Namespace string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_READ_TIMEOUT", 30*time.Second)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 30*time.Second)
	v.SetDefault("SERVER_IDLE_TIMEOUT", 60*time.Second)
	v.SetDefault("GIN_MODE", "release")

	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "password")
	v.SetDefault("DB_NAME", "chat_system")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_SQLITE_PATH", "data/chat-realtime.db")

	v.SetDefault("REDIS_URL", "redis://127.0.0.1:6379/0")
	v.SetDefault("REDIS_MAX_RETRIES", 3)
	v.SetDefault("REDIS_POOL_SIZE", 100)
	v.SetDefault("REDIS_MIN_IDLE_CONNS", 10)
	v.SetDefault("REDIS_DIAL_TIMEOUT", 5*time.Second)
	v.SetDefault("REDIS_READ_TIMEOUT", 3*time.Second)
	v.SetDefault("REDIS_WRITE_TIMEOUT", 3*time.Second)

	v.SetDefault("JWT_SECRET", "your-secret-key")

	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:3000,http://127.0.0.1:3000")
	v.SetDefault("WS_ALLOW_ANONYMOUS", true)
	v.SetDefault("WS_SEND_BUFFER", 256)
	v.SetDefault("WS_MAX_MESSAGE_SIZE", 4096)

	v.SetDefault("GAME_SESSION_TTL", 30*time.Minute)
	v.SetDefault("GAME_IDLE_TTL", 2*time.Hour)
	v.SetDefault("GAME_SWEEP_INTERVAL", time.Minute)

	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("KAFKA_RESULTS_TOPIC", "game-results")
	v.SetDefault("KAFKA_MESSAGES_TOPIC", "chat-messages")
	v.SetDefault("KAFKA_GROUP_ID", "chat-realtime")

	v.SetDefault("RATE_LIMIT_REQUESTS", 100)
	v.SetDefault("RATE_LIMIT_WINDOW", time.Minute)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("LOG_OUTPUT", "stdout")
	v.SetDefault("LOG_FILE_PATH", "logs/chat-realtime.log")

	v.SetDefault("METRICS_NAMESPACE", "chat_realtime")
}

// LoadConfig reads an optional .env file, then the environment, on top of
// the defaults above
func LoadConfig(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && len(envFiles) > 0 {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.AllowEmptyEnv(true)
	v.AutomaticEnv()

	cfg := &Config{
		Server: ServerConfig{
			Host:         v.GetString("SERVER_HOST"),
			Port:         v.GetString("SERVER_PORT"),
			ReadTimeout:  v.GetDuration("SERVER_READ_TIMEOUT"),
			WriteTimeout: v.GetDuration("SERVER_WRITE_TIMEOUT"),
			IdleTimeout:  v.GetDuration("SERVER_IDLE_TIMEOUT"),
			Mode:         v.GetString("GIN_MODE"),
		},
		Database: DatabaseConfig{
			Driver:     strings.ToLower(v.GetString("DB_DRIVER")),
			Host:       v.GetString("DB_HOST"),
			Port:       v.GetString("DB_PORT"),
			User:       v.GetString("DB_USER"),
			Password:   v.GetString("DB_PASSWORD"),
			DBName:     v.GetString("DB_NAME"),
			SSLMode:    v.GetString("DB_SSLMODE"),
			SQLitePath: v.GetString("DB_SQLITE_PATH"),
		},
		Redis: RedisConfig{
			URL:          v.GetString("REDIS_URL"),
			MaxRetries:   v.GetInt("REDIS_MAX_RETRIES"),
			DialTimeout:  v.GetDuration("REDIS_DIAL_TIMEOUT"),
			ReadTimeout:  v.GetDuration("REDIS_READ_TIMEOUT"),
			WriteTimeout: v.GetDuration("REDIS_WRITE_TIMEOUT"),
			PoolSize:     v.GetInt("REDIS_POOL_SIZE"),
			MinIdleConns: v.GetInt("REDIS_MIN_IDLE_CONNS"),
		},
		JWT: JWTConfig{
			Secret: v.GetString("JWT_SECRET"),
		},
		WebSocket: WebSocketConfig{
			AllowedOrigins: splitList(v.GetString("ALLOWED_ORIGINS")),
			AllowAnonymous: v.GetBool("WS_ALLOW_ANONYMOUS"),
			SendBuffer:     v.GetInt("WS_SEND_BUFFER"),
			MaxMessageSize: v.GetInt64("WS_MAX_MESSAGE_SIZE"),
		},
		Game: GameConfig{
			SessionTTL:    v.GetDuration("GAME_SESSION_TTL"),
			IdleTTL:       v.GetDuration("GAME_IDLE_TTL"),
			SweepInterval: v.GetDuration("GAME_SWEEP_INTERVAL"),
		},
		Kafka: KafkaConfig{
			Brokers:       splitList(v.GetString("KAFKA_BROKERS")),
			ResultsTopic:  v.GetString("KAFKA_RESULTS_TOPIC"),
			MessagesTopic: v.GetString("KAFKA_MESSAGES_TOPIC"),
			GroupID:       v.GetString("KAFKA_GROUP_ID"),
		},
		RateLimit: RateLimitConfig{
			Requests: v.GetInt("RATE_LIMIT_REQUESTS"),
			Window:   v.GetDuration("RATE_LIMIT_WINDOW"),
		},
		Logger: logger.Config{
			Level:    v.GetString("LOG_LEVEL"),
			Format:   v.GetString("LOG_FORMAT"),
			Output:   v.GetString("LOG_OUTPUT"),
			FilePath: v.GetString("LOG_FILE_PATH"),
		},
		Metrics: MetricsConfig{
			Namespace: v.GetString("METRICS_NAMESPACE"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot run with
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port == "" {
		errs = append(errs, errors.New("SERVER_PORT is required"))
	}
	switch c.Server.Mode {
	case "", "debug", "release", "test":
	default:
		errs = append(errs, fmt.Errorf("unsupported GIN_MODE %q", c.Server.Mode))
	}
	switch c.Database.Driver {
	case "postgres", "mysql":
	case "sqlite":
		if c.Database.SQLitePath == "" {
			errs = append(errs, errors.New("DB_SQLITE_PATH is required for the sqlite driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver))
	}
	if c.JWT.Secret == "" && !c.WebSocket.AllowAnonymous {
		errs = append(errs, errors.New("JWT_SECRET is required when anonymous websocket connections are disabled"))
	}
	if c.WebSocket.SendBuffer <= 0 {
		errs = append(errs, errors.New("WS_SEND_BUFFER must be positive"))
	}
	if c.WebSocket.MaxMessageSize <= 0 {
		errs = append(errs, errors.New("WS_MAX_MESSAGE_SIZE must be positive"))
	}
	if c.Game.SessionTTL < 0 || c.Game.IdleTTL < 0 {
		errs = append(errs, errors.New("game TTLs cannot be negative"))
	}
	if c.Game.SweepInterval <= 0 {
		errs = append(errs, errors.New("GAME_SWEEP_INTERVAL must be positive"))
	}
	if c.Kafka.Enabled() && c.Kafka.GroupID == "" {
		errs = append(errs, errors.New("KAFKA_GROUP_ID is required when KAFKA_BROKERS is set"))
	}
	if c.RateLimit.Requests < 0 {
		errs = append(errs, errors.New("RATE_LIMIT_REQUESTS cannot be negative"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

// Address is the listen address of the HTTP server
func (c *Config) Address() string {
	return c.Server.Host + ":" + c.Server.Port
}

func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
