package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/santoshjammi/payrecon/internal/db"
)

// Config gathers the runtime settings of the reconciliation service.
type Config struct {
	Database    db.Config
	DataDir     string
	MappingsDir string
	Workers     int
	Storage     string // "postgres" or "memory"
}

// Load reads config.yaml from the given path with environment overrides
// (PAYRECON_DATABASE_HOST and friends); missing file falls back to
// defaults plus env.
func Load(configPath string) (Config, error) {
	cfg := Config{
		Database:    db.DefaultConfig(),
		DataDir:     "./data",
		MappingsDir: "./mappings",
		Workers:     4,
		Storage:     "postgres",
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AutomaticEnv()
	v.SetEnvPrefix("PAYRECON")

	v.BindEnv("database.host")
	v.BindEnv("database.port")
	v.BindEnv("database.user")
	v.BindEnv("database.password")
	v.BindEnv("database.dbname")
	v.BindEnv("database.sslmode")
	v.BindEnv("data_dir")
	v.BindEnv("mappings_dir")
	v.BindEnv("workers")
	v.BindEnv("storage")

	if err := v.ReadInConfig(); err != nil {
		fmt.Println("No config.yaml found, using defaults and env vars")
	}

	if v.IsSet("database.host") {
		cfg.Database.Host = v.GetString("database.host")
	}
	if v.IsSet("database.port") {
		cfg.Database.Port = v.GetInt("database.port")
	}
	if v.IsSet("database.user") {
		cfg.Database.User = v.GetString("database.user")
	}
	if v.IsSet("database.password") {
		cfg.Database.Password = v.GetString("database.password")
	}
	if v.IsSet("database.dbname") {
		cfg.Database.DBName = v.GetString("database.dbname")
	}
	if v.IsSet("database.sslmode") {
		cfg.Database.SSLMode = v.GetString("database.sslmode")
	}
	if v.IsSet("data_dir") {
		cfg.DataDir = v.GetString("data_dir")
	}
	if v.IsSet("mappings_dir") {
		cfg.MappingsDir = v.GetString("mappings_dir")
	}
	if v.IsSet("workers") {
		cfg.Workers = v.GetInt("workers")
	}
	if v.IsSet("storage") {
		cfg.Storage = v.GetString("storage")
	}

	return cfg, nil
}
