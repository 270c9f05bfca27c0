// Package config предоставляет структуры и функции для парсинга и загрузки конфига
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Драйверы хранилища.
const (
	StorageFile     = "file"
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Config общая структура для хранения настроек
type Config struct {
	Env        string     `yaml:"env" env:"ENV" env-default:"local"`
	Storage    Storage    `yaml:"storage"`
	HTTPServer HTTPServer `yaml:"http_server"`
	JWT        JWT        `yaml:"jwt"`
	Redis      Redis      `yaml:"redis"`
	RabbitMQ   RabbitMQ   `yaml:"rabbitmq"`
	SMTP       SMTP       `yaml:"smtp"`
	RateLimit  RateLimit  `yaml:"rate_limit"`
	Scheduler  Scheduler  `yaml:"scheduler"`
}

// Storage настройки носителя снимка
type Storage struct {
	Driver           string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"file"`
	Path             string `yaml:"path" env:"STORAGE_PATH" env-default:"./data/db_simulada.json"`
	ConnectionString string `yaml:"connection_string" env:"STORAGE_CONNECTION_STRING"`
	MigrationsPath   string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"./migrations"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	Address     string        `yaml:"address" env:"HTTP_ADDRESS" env-default:":5000"`
	Timeout     time.Duration `yaml:"timeout" env-default:"5s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
	// TrustProxy включает чтение адреса клиента из X-Real-IP и X-Forwarded-For
	TrustProxy  bool          `yaml:"trust_proxy" env:"HTTP_TRUST_PROXY" env-default:"false"`
}

// JWT структура для работы с jwt-токенами
type JWT struct {
	SecretKey  string        `yaml:"secret_key" env:"SECRET_KEY"`
	AccessTTL  time.Duration `yaml:"access_ttl" env-default:"1h"`
	RefreshTTL time.Duration `yaml:"refresh_ttl" env-default:"720h"`
}

// Redis структура для настройки подключения к redis. Пустой адрес отключает кеш.
type Redis struct {
	Address     string        `yaml:"address" env:"REDIS_ADDRESS"`
	Password    string        `yaml:"password" env:"REDIS_PASSWORD"`
	User        string        `yaml:"user"`
	DB          int           `yaml:"db"`
	MaxRetries  int           `yaml:"max_retries" env-default:"3"`
	DialTimeout time.Duration `yaml:"dial_timeout" env-default:"5s"`
	Timeout     time.Duration `yaml:"timeout" env-default:"3s"`
	StatsTTL    time.Duration `yaml:"stats_ttl" env-default:"1m"`
}

// RabbitMQ настройки брокера. Пустой URL отключает публикацию событий.
type RabbitMQ struct {
	URL        string        `yaml:"url" env:"RABBITMQ_URL"`
	MaxRetries int           `yaml:"max_retries" env-default:"5"`
	RetryDelay time.Duration `yaml:"retry_delay" env-default:"2s"`
}

// SMTP настройки отправки писем
type SMTP struct {
	Host     string `yaml:"host" env:"SMTP_HOST"`
	Port     int    `yaml:"port" env:"SMTP_PORT" env-default:"587"`
	User     string `yaml:"user" env:"SMTP_USER"`
	Password string `yaml:"password" env:"SMTP_PASSWORD"`
	From     string `yaml:"from" env:"SMTP_FROM"`
}

// RateLimit ограничение частоты запросов входа и регистрации с одного адреса
type RateLimit struct {
	RPS   float64 `yaml:"rps" env-default:"5"`
	Burst int     `yaml:"burst" env-default:"10"`
}

// Scheduler настройки планировщика напоминаний о продлении
type Scheduler struct {
	Interval time.Duration `yaml:"interval" env-default:"1h"`
	LeadTime time.Duration `yaml:"lead_time" env-default:"168h"`
}

// Load читает конфиг из файла path и переменных окружения и проверяет его.
func Load(path string) (*Config, error) {
	const op = "config.Load"

	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &cfg, nil
}

// MustLoad загружает конфиг по пути из CONFIG_PATH и завершает процесс при ошибке
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return cfg
}

// Validate проверяет согласованность настроек.
func (c *Config) Validate() error {
	if c.JWT.SecretKey == "" {
		return errors.New("jwt secret key is required (SECRET_KEY)")
	}
	switch c.Storage.Driver {
	case StorageFile:
		if c.Storage.Path == "" {
			return errors.New("storage path is required for file driver")
		}
	case StoragePostgres:
		if c.Storage.ConnectionString == "" {
			return errors.New("storage connection string is required for postgres driver")
		}
	case StorageMemory:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	return nil
}

// String печатает конфиг без секретов.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"Storage:\n"+
			"  Driver: %s\n"+
			"  Path: %s\n"+
			"HTTPServer:\n"+
			"  Address: %s\n"+
			"  Timeout: %s\n"+
			"  IdleTimeout: %s\n"+
			"JWT:\n"+
			"  AccessTTL: %s\n"+
			"  RefreshTTL: %s\n"+
			"Redis:\n"+
			"  Addr: %s\n"+
			"  DB: %d\n"+
			"RabbitMQ enabled: %t\n"+
			"SMTP host: %s\n",
		c.Env,
		c.Storage.Driver,
		c.Storage.Path,
		c.HTTPServer.Address,
		c.HTTPServer.Timeout,
		c.HTTPServer.IdleTimeout,
		c.JWT.AccessTTL,
		c.JWT.RefreshTTL,
		c.Redis.Address,
		c.Redis.DB,
		c.RabbitMQ.URL != "",
		c.SMTP.Host,
	)
}
