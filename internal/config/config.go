package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvSandbox    = "sandbox"
	EnvProduction = "production"
)

var gatewayBaseURLs = map[string]string{
	EnvSandbox:    "https://sandbox.asaas.com/api/v3",
	EnvProduction: "https://api.asaas.com/v3",
}

// Config is read once at startup. Keys match the environment variable names.
type Config struct {
	Port     string `mapstructure:"port"`
	LogEnv   string `mapstructure:"log_env"`
	PoolSize int    `mapstructure:"pool_size"`
	GRPCAddr string `mapstructure:"grpc_addr"`

	AsaasEnv     string `mapstructure:"asaas_env"`
	AsaasKey     string `mapstructure:"asaas_key"`
	AsaasBaseURL string `mapstructure:"asaas_base_url"`
	WebhookToken string `mapstructure:"webhook_token"`

	MetaPixelID       string        `mapstructure:"meta_pixel_id"`
	MetaAccessToken   string        `mapstructure:"meta_access_token"`
	MetaTestEventCode string        `mapstructure:"meta_test_event_code"`
	MetaAPIVersion    string        `mapstructure:"meta_api_version"`
	MetaBaseURL       string        `mapstructure:"meta_base_url"`
	MetaTimeout       time.Duration `mapstructure:"meta_timeout"`

	FrontendURL     string        `mapstructure:"frontend_url"`
	StaticDir       string        `mapstructure:"static_dir"`
	RateLimitMax    int           `mapstructure:"rate_limit_max"`
	RateLimitWindow time.Duration `mapstructure:"rate_limit_window"`

	KafkaBrokers     string `mapstructure:"kafka_brokers"`
	KafkaEventsTopic string `mapstructure:"kafka_events_topic"`
	KafkaGroupID     string `mapstructure:"kafka_group_id"`

	ProductID          string  `mapstructure:"product_id"`
	ProductDescription string  `mapstructure:"product_description"`
	PriceCash          float64 `mapstructure:"price_cash"`
	PriceFull          float64 `mapstructure:"price_full"`
	Currency           string  `mapstructure:"currency"`
}

var defaults = map[string]any{
	"port":      "3000",
	"log_env":   "production",
	"pool_size": 64,
	"grpc_addr": "",

	"asaas_env":      EnvSandbox,
	"asaas_key":      "",
	"asaas_base_url": "",
	"webhook_token":  "",

	"meta_pixel_id":        "",
	"meta_access_token":    "",
	"meta_test_event_code": "",
	"meta_api_version":     "v19.0",
	"meta_base_url":        "https://graph.facebook.com",
	"meta_timeout":         "8s",

	"frontend_url":      "*",
	"static_dir":        "./public",
	"rate_limit_max":    30,
	"rate_limit_window": "15m",

	"kafka_brokers":      "",
	"kafka_events_topic": "checkout.payment-events",
	"kafka_group_id":     "checkout-events-worker",

	"product_id":          "curso-ingles-completo",
	"product_description": "Código Passional — Guia completo com técnicas de reconstrução de relacionamento.",
	"price_cash":          5.00,
	"price_full":          5.00,
	"currency":            "BRL",
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	for k, d := range defaults {
		v.SetDefault(k, d)
	}
	v.AutomaticEnv()

	result := &Config{}
	if err := v.Unmarshal(result); err != nil {
		return nil, err
	}
	result.AsaasEnv = strings.ToLower(strings.TrimSpace(result.AsaasEnv))
	if _, ok := gatewayBaseURLs[result.AsaasEnv]; !ok {
		return nil, fmt.Errorf("ASAAS_ENV must be %q or %q, got %q", EnvSandbox, EnvProduction, result.AsaasEnv)
	}
	if result.PoolSize <= 0 {
		return nil, fmt.Errorf("POOL_SIZE must be positive, got %d", result.PoolSize)
	}
	return result, nil
}

type Gateway struct {
	Env     string
	BaseURL string
	APIKey  string
}

func (c *Config) Gateway() Gateway {
	base := c.AsaasBaseURL
	if base == "" {
		base = gatewayBaseURLs[c.AsaasEnv]
	}
	return Gateway{Env: c.AsaasEnv, BaseURL: strings.TrimRight(base, "/"), APIKey: c.AsaasKey}
}

type Conversion struct {
	PixelID     string
	AccessToken string
	TestCode    string
	APIVersion  string
	BaseURL     string
	Timeout     time.Duration
	ProductID   string
	Currency    string
}

func (c *Config) Conversion() Conversion {
	return Conversion{
		PixelID:     c.MetaPixelID,
		AccessToken: c.MetaAccessToken,
		TestCode:    c.MetaTestEventCode,
		APIVersion:  c.MetaAPIVersion,
		BaseURL:     strings.TrimRight(c.MetaBaseURL, "/"),
		Timeout:     c.MetaTimeout,
		ProductID:   c.ProductID,
		Currency:    c.Currency,
	}
}

type Catalog struct {
	Description string
	PriceCash   float64
	PriceFull   float64
}

func (c *Config) Catalog() Catalog {
	return Catalog{Description: c.ProductDescription, PriceCash: c.PriceCash, PriceFull: c.PriceFull}
}

// KafkaBrokerList returns nil when the event bus is disabled.
func (c *Config) KafkaBrokerList() []string {
	var out []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}
