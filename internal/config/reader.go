package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
)

// Reader loads the configuration from some source.
type Reader interface {
	Read() (*Config, error)
}

// EnvReader reads the configuration from process environment
// variables, including any loaded from a .env file at startup.
type EnvReader struct{}

func NewEnvReader() EnvReader {
	return EnvReader{}
}

func (EnvReader) Read() (*Config, error) {
	cfg := new(Config)
	err := cleanenv.ReadEnv(cfg)
	if err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}

	return cfg, nil
}
