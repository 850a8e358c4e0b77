package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

type Server struct {
	ListenAddress  string   `yaml:"listenAddress"`
	TLSCertFile    string   `yaml:"tlsCertFile"`
	TLSKeyFile     string   `yaml:"tlsKeyFile"`
	TrustedProxies []string `yaml:"trustedProxies"` // IPs/CIDRs to trust for X-Forwarded-For headers
}

type Database struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

// DSN builds a go-sql-driver/mysql connection string from the database section.
func (d Database) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

type Redis struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	// SessionTTLHours is how long a session record lives without being revoked.
	SessionTTLHours int `yaml:"sessionTTLHours"`
}

type Mail struct {
	Host               string `yaml:"host"`
	Port               int    `yaml:"port"`
	User               string `yaml:"user"`
	Password           string `yaml:"password"`
	SenderAddress      string `yaml:"senderAddress"`
	SenderName         string `yaml:"senderName"`
	InsecureSkipVerify bool   `yaml:"insecureSkipVerify"`
	RetryCount         int    `yaml:"retryCount"`
	RetryBackoffMs     int    `yaml:"retryBackoffMs"`
	QueueSize          int    `yaml:"queueSize"`
}

type KafkaSink struct {
	Enabled bool     `yaml:"enabled"`
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

type Audit struct {
	// LogSink mirrors every audit event into the structured log.
	LogSink bool      `yaml:"logSink"`
	Kafka   KafkaSink `yaml:"kafka"`
}

type Notifications struct {
	// QueueSize bounds the number of pending notification jobs.
	QueueSize int `yaml:"queueSize"`
	// BrandingName is shown in notification mails (e.g. "Openidem").
	BrandingName string `yaml:"brandingName"`
}

type Telemetry struct {
	Enabled bool `yaml:"enabled"`
	// Exporter selects the trace exporter: "otlp" (default), "stdout", or "none".
	Exporter string `yaml:"exporter"`
	// Endpoint is the OTLP collector endpoint (e.g. "otel-collector:4317").
	Endpoint     string  `yaml:"endpoint"`
	Insecure     bool    `yaml:"insecure"`
	SamplingRate float64 `yaml:"samplingRate"`
}

type Config struct {
	Server        Server        `yaml:"server"`
	Database      Database      `yaml:"database"`
	Redis         Redis         `yaml:"redis"`
	Mail          Mail          `yaml:"mail"`
	Audit         Audit         `yaml:"audit"`
	Notifications Notifications `yaml:"notifications"`
	Telemetry     Telemetry     `yaml:"telemetry"`
}

// Load loads the lockdown service configuration from a file path.
// If configPath is empty, defaults to "./config.yaml". The path can also be
// overridden via the LOCKDOWN_CONFIG_PATH environment variable.
func Load(configPath ...string) (Config, error) {
	var path string

	if len(configPath) > 0 && configPath[0] != "" {
		path = configPath[0]
	} else if env := os.Getenv("LOCKDOWN_CONFIG_PATH"); env != "" {
		path = env
	} else {
		path = "./config.yaml"
	}

	var config Config

	content, err := os.ReadFile(path)
	if err != nil {
		return config, fmt.Errorf("trying to open lockdown config file %s: %v", path, err)
	}

	err = yaml.Unmarshal(content, &config)
	if err != nil {
		return config, fmt.Errorf("error unmarshaling YAML %s: %v", path, err)
	}
	return config, nil
}

// Defaults fills in unset fields with sensible defaults.
func (c *Config) Defaults() {
	if c.Server.ListenAddress == "" {
		c.Server.ListenAddress = ":8080"
	}
	if c.Database.Host == "" {
		c.Database.Host = "127.0.0.1"
	}
	if c.Database.Port == 0 {
		c.Database.Port = 3306
	}
	if c.Database.Name == "" {
		c.Database.Name = "lockdown"
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = "127.0.0.1:6379"
	}
	if c.Redis.SessionTTLHours == 0 {
		c.Redis.SessionTTLHours = 24 * 14
	}
	if c.Mail.Port == 0 {
		c.Mail.Port = 587
	}
	if c.Mail.RetryCount == 0 {
		c.Mail.RetryCount = 3
	}
	if c.Mail.RetryBackoffMs == 0 {
		c.Mail.RetryBackoffMs = 100
	}
	if c.Mail.QueueSize == 0 {
		c.Mail.QueueSize = 1000
	}
	if c.Audit.Kafka.Topic == "" {
		c.Audit.Kafka.Topic = "lockdown-audit"
	}
	if c.Notifications.QueueSize == 0 {
		c.Notifications.QueueSize = 256
	}
	if c.Notifications.BrandingName == "" {
		c.Notifications.BrandingName = "Openidem"
	}
	if c.Telemetry.SamplingRate == 0 {
		c.Telemetry.SamplingRate = 1.0
	}
}
