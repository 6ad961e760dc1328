// Package devops loads the service configuration: a YAML document either on
// disk or, for deployed environments, in an SSM parameter. Secrets can be
// overridden through environment variables so they stay out of the file.
package devops

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type StoreConfig struct {
	// Backend selects the tabular store: "memory", "excel" or "mysql".
	Backend         string `yaml:"backend"`
	ExcelPath       string `yaml:"excel_path"`
	MysqlDSN        string `yaml:"mysql_dsn"`
	LockWaitSeconds int    `yaml:"lock_wait_seconds"`
}

type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type S3Config struct {
	Enabled    bool   `yaml:"enabled"`
	Bucket     string `yaml:"bucket"`
	Prefix     string `yaml:"prefix"`
	PublicBase string `yaml:"public_base"`
}

type SlackConfig struct {
	Enabled      bool   `yaml:"enabled"`
	Token        string `yaml:"token"`
	AlertChannel string `yaml:"alert_channel"`
}

type GeofenceConfig struct {
	Enforce         bool    `yaml:"enforce"`
	ThresholdMeters float64 `yaml:"threshold_meters"`
}

type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json or console
}

type CacheConfig struct {
	TTLSeconds int `yaml:"ttl_seconds"`
}

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Store    StoreConfig    `yaml:"store"`
	Redis    RedisConfig    `yaml:"redis"`
	S3       S3Config       `yaml:"s3"`
	Slack    SlackConfig    `yaml:"slack"`
	Geofence GeofenceConfig `yaml:"geofence"`
	Log      LogConfig      `yaml:"log"`
	Cache    CacheConfig    `yaml:"cache"`
}

// LoadConfig reads the YAML config. When PATROL_CONFIG_SSM_PARAM is set the
// document is fetched from SSM Parameter Store instead of the local path.
func LoadConfig(ctx context.Context, path string) (*Config, error) {
	var raw []byte
	var err error

	if param := os.Getenv("PATROL_CONFIG_SSM_PARAM"); param != "" {
		raw, err = fetchFromSSM(ctx, param)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	cfg := defaultConfig()
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("unmarshal yaml: %w", err)
	}
	applyEnvOverrides(cfg)
	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Server:   ServerConfig{Addr: "0.0.0.0:8090"},
		Store:    StoreConfig{Backend: "memory", LockWaitSeconds: 10},
		Geofence: GeofenceConfig{ThresholdMeters: 150},
		Log:      LogConfig{Level: "info", Format: "json"},
		Cache:    CacheConfig{TTLSeconds: 120},
	}
}

func applyEnvOverrides(cfg *Config) {
	if dsn := os.Getenv("PATROL_MYSQL_DSN"); dsn != "" {
		cfg.Store.MysqlDSN = dsn
	}
	if addr := os.Getenv("PATROL_REDIS_ADDR"); addr != "" {
		cfg.Redis.Addr = addr
		cfg.Redis.Enabled = true
	}
	if pw := os.Getenv("PATROL_REDIS_PASSWORD"); pw != "" {
		cfg.Redis.Password = pw
	}
	if token := os.Getenv("SLACK_BOT_TOKEN"); token != "" {
		cfg.Slack.Token = token
	}
	if ch := os.Getenv("SLACK_ALERT_CHANNEL"); ch != "" {
		cfg.Slack.AlertChannel = ch
	}
}

func fetchFromSSM(ctx context.Context, paramName string) ([]byte, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := ssm.NewFromConfig(awsCfg)
	out, err := client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(paramName),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("get parameter: %w", err)
	}
	return []byte(*out.Parameter.Value), nil
}
