package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config holds all service settings. Values come from environment variables
// first, then an optional controldejavi-config.json in the working directory
// or $HOME, then the defaults below.
type Config struct {
	APIKey           string `mapstructure:"api_key"`
	TelegramBotToken string `mapstructure:"telegram_bot_token"`
	TelegramChatID   string `mapstructure:"telegram_chat_id"`
	Port             int    `mapstructure:"port"`
	DataFile         string `mapstructure:"data_file"`
	FrontendDir      string `mapstructure:"frontend_dir"`
	NotifyHour       int    `mapstructure:"notify_hour"`
	NotifyMinute     int    `mapstructure:"notify_minute"`
	Timezone         string `mapstructure:"timezone"`
	SchedulerEnabled bool   `mapstructure:"scheduler_enabled"`
	LogLevel         string `mapstructure:"log_level"`
	LogFormat        string `mapstructure:"log_format"`
}

// Load builds the configuration from env, optional config file and defaults.
func Load() (Config, error) {
	v := viper.New()

	v.SetDefault("api_key", "javi123")
	v.SetDefault("telegram_bot_token", "")
	v.SetDefault("telegram_chat_id", "")
	v.SetDefault("port", 10000)
	v.SetDefault("data_file", "data/products.json")
	v.SetDefault("frontend_dir", "")
	v.SetDefault("notify_hour", 22)
	v.SetDefault("notify_minute", 0)
	v.SetDefault("timezone", "America/Argentina/Buenos_Aires")
	v.SetDefault("scheduler_enabled", true)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")

	v.SetConfigName("controldejavi-config")
	v.SetConfigType("json")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME")
	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	v.AutomaticEnv()
	for _, key := range []string{
		"api_key",
		"telegram_bot_token",
		"telegram_chat_id",
		"port",
		"data_file",
		"frontend_dir",
		"notify_hour",
		"notify_minute",
		"timezone",
		"scheduler_enabled",
		"log_level",
		"log_format",
	} {
		if err := v.BindEnv(key); err != nil {
			return Config{}, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}
