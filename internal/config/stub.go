package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Stub configures the local sandbox gateway process.
type Stub struct {
	HTTPAddr string  `mapstructure:"http_addr"`
	LogEnv   string  `mapstructure:"log_env"`
	APIKey   string  `mapstructure:"asaas_key"`
	FailRate float64 `mapstructure:"fail_rate"`
}

var stubDefaults = map[string]any{
	"http_addr": ":8081",
	"log_env":   "development",
	"asaas_key": "",
	"fail_rate": 0.0,
}

func LoadStub() (*Stub, error) {
	_ = godotenv.Load()
	return loadStub(viper.New())
}

func loadStub(v *viper.Viper) (*Stub, error) {
	for k, d := range stubDefaults {
		v.SetDefault(k, d)
	}
	v.AutomaticEnv()

	result := &Stub{}
	if err := v.Unmarshal(result); err != nil {
		return nil, err
	}
	if result.FailRate < 0 || result.FailRate > 1 {
		return nil, fmt.Errorf("FAIL_RATE must be within 0..1, got %v", result.FailRate)
	}
	return result, nil
}
