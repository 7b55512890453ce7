package envutil

import (
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

// ReadConfig fills cfg from the environment using its `env` and
// `env-default` struct tags.
func ReadConfig(cfg interface{}) error {
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return fmt.Errorf("envutil: reading config: %w", err)
	}
	return nil
}

// Describe returns the list of environment variables cfg understands, with
// their defaults and descriptions.
func Describe(cfg interface{}, header string) (string, error) {
	return cleanenv.GetDescription(cfg, &header)
}

// GetEnvOrFallback gets the environment variable for the specified key, but if
// it doesn't find a value, it'll instead return fallback.
func GetEnvOrFallback(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		value = fallback
	}
	return value
}
