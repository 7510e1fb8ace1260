package config

import (
	_ "github.com/joho/godotenv/autoload"

	"github.com/ilyakaznacheev/cleanenv"
)

// Read loads the configuration from the environment (and a .env file in
// the working directory, if present) and validates it.
func Read() (*Config, error) {
	cfg := new(Config)
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
