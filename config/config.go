// Package config loads engine configuration from environment variables.
package config

import (
	"github.com/spf13/viper"
)

type Config struct {
	ServerPort  int    `mapstructure:"SERVER_PORT"`
	DBPath      string `mapstructure:"DB_PATH"`
	GenaiAPIKey string `mapstructure:"GENAI_API_KEY"`
	GenaiModel  string `mapstructure:"GENAI_MODEL"`
	LocalDev    bool   `mapstructure:"LOCAL_DEV"`
}

// LoadConfig reads configuration from environment variables with defaults
// suitable for a local run. An empty GENAI_API_KEY disables automated
// proof detection; claims then always go to cold admin review.
func LoadConfig() (config Config, err error) {
	viper.SetDefault("SERVER_PORT", 8080)
	viper.SetDefault("DB_PATH", "./data/overtime.db")
	viper.SetDefault("GENAI_API_KEY", "")
	viper.SetDefault("GENAI_MODEL", "gemini-2.5-flash")
	viper.SetDefault("LOCAL_DEV", false)

	// Read in environment variables that match the keys.
	viper.AutomaticEnv()

	err = viper.Unmarshal(&config)
	return
}
