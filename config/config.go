package config

import (
	"errors"
	"strings"

	"github.com/spf13/viper"
)

type AppConfig struct {
	Db     *DbConfig     `mapstructure:"db"`
	Server *ServerConfig `mapstructure:"server"`
}

type DbConfig struct {
	Driver       string `mapstructure:"driver"`
	Host         string `mapstructure:"host"`
	Port         string `mapstructure:"port"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	DetailLog    bool   `mapstructure:"detail-log"`
	MaxOpenConns int    `mapstructure:"max-open-conns"`
	MaxIdleConns int    `mapstructure:"max-idle-conns"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
}

var configuration *AppConfig

// LoadConfig reads config/config.yaml when present and applies QATRACK_*
// environment overrides (QATRACK_DB_HOST, QATRACK_SERVER_PORT, ...).
// A missing file is not an error; defaults give a local sqlite setup.
func LoadConfig() (*AppConfig, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	v.SetEnvPrefix("QATRACK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.port", ":8080")
	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.database", "qatrack.db")
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", "5432")
	v.SetDefault("db.max-open-conns", 100)
	v.SetDefault("db.max-idle-conns", 10)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &AppConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}

	configuration = cfg
	return cfg, nil
}

func GetDb() *DbConfig {
	return configuration.Db
}

func GetServer() *ServerConfig {
	return configuration.Server
}
