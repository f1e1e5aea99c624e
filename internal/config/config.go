// Package config loads and validates filesmanager YAML configuration.
// It applies defaults so the daemon can rely on fully populated values.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// DBConfig holds database settings.
type DBConfig struct {
	Path string `yaml:"path"`
}

// RedisConfig holds the session/queue backend settings.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Bind        string `yaml:"bind"`
	Port        int    `yaml:"port"`
	MaxUploadMB int    `yaml:"max_upload_mb"`
	LoginPerMin int    `yaml:"login_per_minute"`
}

// StorageConfig holds blob storage settings.
type StorageConfig struct {
	FolderPath string `yaml:"folder_path"`
}

// WorkerConfig holds thumbnail pipeline settings.
type WorkerConfig struct {
	Embedded    bool `yaml:"embedded"`
	Concurrency int  `yaml:"concurrency"`
	QueueBuffer int  `yaml:"queue_buffer"`
}

// Config mirrors the filesmanager.yaml schema.
type Config struct {
	Log     LogConfig     `yaml:"log"`
	DB      DBConfig      `yaml:"db"`
	Redis   RedisConfig   `yaml:"redis"`
	HTTP    HTTPConfig    `yaml:"http"`
	Storage StorageConfig `yaml:"storage"`
	Worker  WorkerConfig  `yaml:"worker"`
}

// Default returns a Config populated only with defaults.
func Default() Config {
	var c Config
	applyDefaults(&c)
	return c
}

// Load reads a YAML config file, applies defaults and env overrides, and validates it.
// It returns a fully populated Config or a descriptive error.
func Load(path string) (Config, error) {
	var c Config
	if path == "" {
		return c, errors.New("config path is required")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return c, err
	}
	applyDefaults(&c)
	if err := ApplyEnv(&c, os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := Validate(&c); err != nil {
		return Config{}, err
	}
	c.DB.Path = strings.TrimSpace(c.DB.Path)
	c.Storage.FolderPath = strings.TrimSpace(c.Storage.FolderPath)
	return c, nil
}

// ApplyEnv overrides config values from the process environment.
// lookup is usually os.LookupEnv.
func ApplyEnv(c *Config, lookup func(string) (string, bool)) error {
	if v, ok := lookup("FOLDER_PATH"); ok && strings.TrimSpace(v) != "" {
		c.Storage.FolderPath = strings.TrimSpace(v)
	}
	if v, ok := lookup("DB_PATH"); ok && strings.TrimSpace(v) != "" {
		c.DB.Path = strings.TrimSpace(v)
	}
	if v, ok := lookup("REDIS_ADDR"); ok && strings.TrimSpace(v) != "" {
		c.Redis.Addr = strings.TrimSpace(v)
	}
	if v, ok := lookup("PORT"); ok && strings.TrimSpace(v) != "" {
		p, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return errors.New("PORT must be numeric")
		}
		c.HTTP.Port = p
	}
	return nil
}

// applyDefaults populates zero-values with sane defaults.
func applyDefaults(c *Config) {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.DB.Path == "" {
		c.DB.Path = "./data/filesmanager.db"
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = "127.0.0.1:6379"
	}
	if c.HTTP.Bind == "" {
		c.HTTP.Bind = "127.0.0.1"
	}
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 5000
	}
	if c.HTTP.MaxUploadMB == 0 {
		c.HTTP.MaxUploadMB = 64
	}
	if c.HTTP.LoginPerMin == 0 {
		c.HTTP.LoginPerMin = 10
	}
	if c.Storage.FolderPath == "" {
		c.Storage.FolderPath = "/tmp/files_manager"
	}
	if c.Worker.Concurrency == 0 {
		c.Worker.Concurrency = 2
	}
	if c.Worker.QueueBuffer == 0 {
		c.Worker.QueueBuffer = 256
	}
}

// Validate performs basic sanity checks for required fields and ranges.
// It does not mutate the config.
func Validate(c *Config) error {
	if strings.TrimSpace(c.Log.Level) == "" {
		return errors.New("log.level is required")
	}
	if strings.TrimSpace(c.DB.Path) == "" {
		return errors.New("db.path is required")
	}
	if strings.TrimSpace(c.Redis.Addr) == "" {
		return errors.New("redis.addr is required")
	}
	if c.Redis.DB < 0 {
		return errors.New("redis.db is invalid")
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return errors.New("http.port is invalid")
	}
	if c.HTTP.MaxUploadMB < 1 || c.HTTP.MaxUploadMB > 10240 {
		return errors.New("http.max_upload_mb is invalid")
	}
	if c.HTTP.LoginPerMin < 1 {
		return errors.New("http.login_per_minute is invalid")
	}
	if strings.TrimSpace(c.Storage.FolderPath) == "" {
		return errors.New("storage.folder_path is required")
	}
	if c.Worker.Concurrency < 1 || c.Worker.Concurrency > 64 {
		return errors.New("worker.concurrency is invalid")
	}
	if c.Worker.QueueBuffer < 1 {
		return errors.New("worker.queue_buffer is invalid")
	}
	return nil
}
