package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Schedule declares one recurring analysis with optional alerting.
type Schedule struct {
	Name           string   `yaml:"name"`
	Cron           string   `yaml:"cron"`
	Tenant         string   `yaml:"tenant"`
	Target         string   `yaml:"target"`
	AlertThreshold string   `yaml:"alertThreshold"`
	Notification   []string `yaml:"notification"`
}

type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`

	Database struct {
		Driver   string `yaml:"driver"`
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
	} `yaml:"database"`

	Minio struct {
		Endpoint   string `yaml:"endpoint"`
		AccessKey  string `yaml:"accessKey"`
		SecretKey  string `yaml:"secretKey"`
		BucketName string `yaml:"bucketName"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`
	} `yaml:"minio"`

	Artifacts struct {
		Root string `yaml:"root"`
	} `yaml:"artifacts"`

	AI struct {
		BaseURL        string `yaml:"baseUrl"`
		APIKey         string `yaml:"apiKey"`
		Model          string `yaml:"model"`
		EmbeddingModel string `yaml:"embeddingModel"`
	} `yaml:"ai"`

	Weaviate struct {
		Host   string `yaml:"host"`
		Scheme string `yaml:"scheme"`
		Class  string `yaml:"class"`
	} `yaml:"weaviate"`

	Healing struct {
		Enabled bool `yaml:"enabled"`
	} `yaml:"healing"`

	Notifications struct {
		Slack struct {
			WebhookURL string `yaml:"webhookUrl"`
		} `yaml:"slack"`
		GitLab struct {
			BaseURL   string `yaml:"baseUrl"`
			ProjectID string `yaml:"projectId"`
			Token     string `yaml:"token"`
		} `yaml:"gitlab"`
	} `yaml:"notifications"`

	Schedules []Schedule `yaml:"schedules"`

	Auth struct {
		// APIKeys maps tenant id to its key. Empty map disables auth.
		APIKeys map[string]string `yaml:"apiKeys"`
	} `yaml:"auth"`
}

// Load reads the yaml config file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "mysql"
	}
	if cfg.Weaviate.Class == "" {
		cfg.Weaviate.Class = "InfraSpec"
	}
	return &cfg, nil
}

// Helper to build the MySQL DSN
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}

// Helper to build the Postgres DSN
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
	)
}
