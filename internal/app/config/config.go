package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	Env         string            `yaml:"env" env:"ENV" env-default:"local"`
	Roles       RolesConfig       `yaml:"roles"`
	Redis       RedisConfig       `yaml:"redis"`
	MongoDB     MongoDBConfig     `yaml:"mongo"`
	NATS        NATSConfig        `yaml:"nats"`
	Logger      LoggerConfig      `yaml:"logger"`
	Metrics     MetricsConfig     `yaml:"metrics"`
	Budget      BudgetConfig      `yaml:"budget"`
	Fingerprint FingerprintConfig `yaml:"fingerprint"`
	Scheduler   SchedulerConfig   `yaml:"scheduler"`
	Worker      WorkerConfig      `yaml:"worker"`
	SMTP        SMTPConfig        `yaml:"smtp"`
	Telegram    TelegramConfig    `yaml:"telegram"`
	WhatsApp    WhatsAppConfig    `yaml:"whatsapp"`
	Push        PushConfig        `yaml:"push"`
}

// RolesConfig selects which pipeline stages this process runs. One binary
// serves all deployments; production runs each role in its own process.
type RolesConfig struct {
	Scheduler bool `yaml:"scheduler" env:"ROLE_SCHEDULER" env-default:"true"`
	Analyzer  bool `yaml:"analyzer" env:"ROLE_ANALYZER" env-default:"true"`
	Alerts    bool `yaml:"alerts" env:"ROLE_ALERTS" env-default:"true"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

type MongoDBConfig struct {
	URI      string `yaml:"uri" env:"MONGO_URI" env-default:"mongodb://localhost:27017"`
	User     string `yaml:"user" env:"MONGO_USER"`
	Password string `yaml:"password" env:"MONGO_PASSWORD"`
	Database string `yaml:"database" env:"MONGO_DATABASE" env-default:"sniper_service_db"`
}

type NATSConfig struct {
	URL string `yaml:"url" env:"NATS_URL" env-default:"nats://localhost:4222"`
}

type LoggerConfig struct {
	Level      string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	Encoding   string `yaml:"encoding" env:"LOG_ENCODING" env-default:"json"`
	TimeFormat string `yaml:"time_format" env:"LOG_TIME_FORMAT" env-default:"2006-01-02T15:04:05.000Z07:00"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" env:"METRICS_ENABLED" env-default:"true"`
	Port    string `yaml:"port" env:"METRICS_PORT" env-default:"9091"`
}

type BudgetConfig struct {
	AlertsRatePerMin int           `yaml:"alerts_rate_per_min" env:"BUDGET_ALERTS_RATE_PER_MIN" env-default:"60"`
	BurstMultiplier  float64       `yaml:"burst_multiplier" env:"BUDGET_BURST_MULTIPLIER" env-default:"1"`
	BucketExpiry     time.Duration `yaml:"bucket_expiry" env:"BUDGET_BUCKET_EXPIRY" env-default:"90s"`
}

type FingerprintConfig struct {
	// TTL bounds cache growth; zero keeps entries forever. Eviction is an
	// operational concern, not a correctness one: the fingerprint already
	// encodes the observation day.
	TTL time.Duration `yaml:"ttl" env:"FINGERPRINT_TTL" env-default:"0"`
}

type SchedulerConfig struct {
	TickInterval time.Duration `yaml:"tick_interval" env:"SCHEDULER_TICK_INTERVAL" env-default:"30s"`
	MaxLeaseTTL  time.Duration `yaml:"max_lease_ttl" env:"SCHEDULER_MAX_LEASE_TTL" env-default:"15m"`
}

type WorkerConfig struct {
	Concurrency int           `yaml:"concurrency" env:"WORKER_CONCURRENCY" env-default:"4"`
	JobTimeout  time.Duration `yaml:"job_timeout" env:"WORKER_JOB_TIMEOUT" env-default:"2m"`
}

type SMTPConfig struct {
	Host        string `yaml:"host" env:"SMTP_HOST"`
	Port        int    `yaml:"port" env:"SMTP_PORT" env-default:"587"`
	Username    string `yaml:"username" env:"SMTP_USERNAME"`
	Password    string `yaml:"password" env:"SMTP_PASSWORD"`
	SenderEmail string `yaml:"sender_email" env:"SMTP_SENDER_EMAIL"`
	Encryption  string `yaml:"encryption" env:"SMTP_ENCRYPTION" env-default:"tls"`
	ServerName  string `yaml:"server_name" env:"SMTP_SERVER_NAME"`
}

type TelegramConfig struct {
	BotToken string `yaml:"bot_token" env:"TELEGRAM_BOT_TOKEN"`
}

type WhatsAppConfig struct {
	APIURL      string        `yaml:"api_url" env:"WHATSAPP_API_URL"`
	AccessToken string        `yaml:"access_token" env:"WHATSAPP_ACCESS_TOKEN"`
	Timeout     time.Duration `yaml:"timeout" env:"WHATSAPP_TIMEOUT" env-default:"10s"`
}

type PushConfig struct {
	GatewayURL string        `yaml:"gateway_url" env:"PUSH_GATEWAY_URL"`
	APIKey     string        `yaml:"api_key" env:"PUSH_API_KEY"`
	Timeout    time.Duration `yaml:"timeout" env:"PUSH_TIMEOUT" env-default:"10s"`
}

func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if path == "" {
		err := cleanenv.ReadEnv(&cfg)
		if err != nil {
			return nil, err
		}
		return &cfg, nil
	}

	err := cleanenv.ReadConfig(path, &cfg)
	if err != nil {
		if _, ok := err.(*os.PathError); ok && path != "" {
			log.Printf("Warning: Config file not found at %s, attempting to load from environment variables only.", path)
			errEnv := cleanenv.ReadEnv(&cfg)
			if errEnv != nil {
				return nil, errEnv
			}
			return &cfg, nil
		}
		return nil, err
	}
	return &cfg, nil
}

func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH_SNIPER_SERVICE")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := LoadConfig(configPath)
	if err != nil {
		log.Fatalf("cannot load config: %v", err)
	}
	return cfg
}
