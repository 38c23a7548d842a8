// Package config loads command configuration with viper.
//
// Files are searched under cmd/<name>/config.yml, config/config.yml and
// ./config.yml, and a .env file is loaded with godotenv when present.
// Each mapstructure key of the target struct is bound to its upper snake
// case environment variable, so STREAM_CONNECT_TIMEOUT overrides
// stream.connect_timeout.
//
//	var cfg WatchConfig
//	err := config.LoadConfig("inventory-watch", &cfg, config.WithConfigFile(path))
package config
