package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const defaultConfigPath = "./config/local.yaml"

type Config struct {
	Env        string `yaml:"env" env:"MES_ENV" env-default:"prod"`
	Storage    string `yaml:"storage" env:"MES_STORAGE" env-default:"mysql"` // mysql | memory
	HTTPServer `yaml:"http_server"`
	MySQL      `yaml:"mysql"`
	Redis      `yaml:"redis"`
	Audit      `yaml:"audit"`

	AllowedOrigins []string `yaml:"allowed_origins" env:"MES_ALLOWED_ORIGINS" env-separator:","`

	AdminLogin string `yaml:"admin_login" env:"MES_ADMIN_LOGIN"`
	AdminPass  string `yaml:"admin_pass" env:"MES_ADMIN_PASS"`
}

type HTTPServer struct {
	Address      string        `yaml:"address" env:"MES_HTTP_ADDRESS" env-default:"localhost:4001"`
	Timeout      time.Duration `yaml:"timeout" env-default:"4s"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" env-default:"60s"`
	WriteTimeout time.Duration `yaml:"write_timeout" env-default:"15s"` // covers the excel export
}

type MySQL struct {
	DBUser     string `yaml:"db_user" env:"MES_DB_USER"`
	DBPassword string `yaml:"db_password" env:"MES_DB_PASSWORD"`
	DBHost     string `yaml:"db_host" env:"MES_DB_HOST" env-default:"localhost"`
	DBPort     int    `yaml:"db_port" env:"MES_DB_PORT" env-default:"3306"`
	DBName     string `yaml:"db_name" env:"MES_DB_NAME" env-default:"smartmes"`
	ParseTime  bool   `yaml:"parse_time" env-default:"true"`
	Migrate    bool   `yaml:"migrate" env:"MES_DB_MIGRATE" env-default:"true"`

	MaxOpenConns    int           `yaml:"max_open_conns" env-default:"20"`
	MaxIdleConns    int           `yaml:"max_idle_conns" env-default:"5"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" env-default:"30m"`
}

type Redis struct {
	Addr          string `yaml:"addr" env:"MES_REDIS_ADDR"` // empty disables the event feed
	Password      string `yaml:"password" env:"MES_REDIS_PASSWORD"`
	DB            int    `yaml:"db" env-default:"0"`
	ChannelPrefix string `yaml:"channel_prefix" env-default:"smartmes"`
}

type Audit struct {
	QueueSize    int           `yaml:"queue_size" env-default:"256"`
	DrainTimeout time.Duration `yaml:"drain_timeout" env-default:"5s"`
	WriteTimeout time.Duration `yaml:"write_timeout" env-default:"3s"`
}

// DSN builds the go-sql-driver/mysql connection string.
func (m MySQL) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=%v&loc=Local",
		m.DBUser,
		m.DBPassword,
		m.DBHost,
		m.DBPort,
		m.DBName,
		m.ParseTime,
	)
}

func Load(path string) (*Config, error) {
	var cfg Config

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("config.Load: read env: %w", err)
		}
		return &cfg, nil
	}

	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: read %s: %w", path, err)
	}

	return &cfg, nil
}

func MustConfig() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = defaultConfigPath
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("cannot read config: %s", err)
	}

	return cfg
}
