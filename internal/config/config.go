package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Configuration struct {
	Deployment  DeploymentConfig  `validate:"required"`
	Server      ServerConfig      `validate:"required"`
	Logging     LoggingConfig     `validate:"required"`
	Postgres    PostgresConfig    `validate:"required"`
	Auth        AuthConfig        `validate:"required"`
	Stripe      StripeConfig      `validate:"required"`
	HubSpot     HubSpotConfig
	Email       EmailConfig
	SideEffects SideEffectsConfig
	Sentry      SentryConfig
}

type DeploymentConfig struct {
	Mode string `validate:"required"`
}

type ServerConfig struct {
	Address string `validate:"required"`
}

type LoggingConfig struct {
	Level string `validate:"required"`
}

type PostgresConfig struct {
	Host                   string
	Port                   int
	User                   string
	Password               string
	DBName                 string
	SSLMode                string
	MaxOpenConns           int
	MaxIdleConns           int
	ConnMaxLifetimeMinutes int
}

type AuthConfig struct {
	// Secret verifies admin JWTs on the read API. Token issuance happens
	// in the portal frontend's auth service, not here.
	Secret string `validate:"required"`
}

type StripeConfig struct {
	SecretKey     string `mapstructure:"secret_key" validate:"required"`
	WebhookSecret string `mapstructure:"webhook_secret" validate:"required"`
}

type HubSpotConfig struct {
	AccessToken string `mapstructure:"access_token"`
	BaseURL     string `mapstructure:"base_url"`
}

type EmailConfig struct {
	APIKey      string `mapstructure:"api_key"`
	FromAddress string `mapstructure:"from_address"`
	FromName    string `mapstructure:"from_name"`
}

type SideEffectsConfig struct {
	Topic         string
	MaxRetries    int
	CallTimeoutMS int `mapstructure:"call_timeout_ms"`
}

type SentryConfig struct {
	Enabled     bool
	DSN         string
	Environment string
	SampleRate  float64 `mapstructure:"sample_rate"`
}

func NewConfig() (*Configuration, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./internal/config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/portal")

	v.SetEnvPrefix("PORTAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(
		".", "_",
		"-", "_",
	))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, err
		}
	}

	var config Configuration
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	applyDefaults(&config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func applyDefaults(c *Configuration) {
	if c.SideEffects.Topic == "" {
		c.SideEffects.Topic = "side_effects"
	}
	if c.SideEffects.MaxRetries == 0 {
		c.SideEffects.MaxRetries = 3
	}
	if c.SideEffects.CallTimeoutMS == 0 {
		c.SideEffects.CallTimeoutMS = 10000
	}
	if c.HubSpot.BaseURL == "" {
		c.HubSpot.BaseURL = "https://api.hubapi.com"
	}
}

func (c Configuration) Validate() error {
	validate := validator.New()
	return validate.Struct(c)
}

// GetDefaultConfig returns a default configuration for local development
// and tests that never read a config file.
func GetDefaultConfig() *Configuration {
	return &Configuration{
		Deployment: DeploymentConfig{Mode: "local"},
		Server:     ServerConfig{Address: ":8080"},
		Logging:    LoggingConfig{Level: "debug"},
		Auth:       AuthConfig{Secret: "test-secret"},
		Stripe: StripeConfig{
			SecretKey:     "sk_test_dummy",
			WebhookSecret: "whsec_dummy",
		},
		SideEffects: SideEffectsConfig{
			Topic:         "side_effects",
			MaxRetries:    3,
			CallTimeoutMS: 10000,
		},
	}
}

func (c PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"user=%s password=%s dbname=%s host=%s port=%d sslmode=%s",
		c.User,
		c.Password,
		c.DBName,
		c.Host,
		c.Port,
		c.SSLMode,
	)
}

func (c SideEffectsConfig) CallTimeout() time.Duration {
	return time.Duration(c.CallTimeoutMS) * time.Millisecond
}
