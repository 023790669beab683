package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Database struct {
		Host     string `mapstructure:"host"`
		Port     string `mapstructure:"port"`
		User     string `mapstructure:"user"`
		Password string `mapstructure:"password"`
		Name     string `mapstructure:"name"`
		SSLMode  string `mapstructure:"sslmode"`
	} `mapstructure:"database"`
	Server struct {
		Port            string        `mapstructure:"port"`
		ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	} `mapstructure:"server"`
	Redis struct {
		Host     string `mapstructure:"host"`
		Port     string `mapstructure:"port"`
		Password string `mapstructure:"password"`
		DB       int    `mapstructure:"db"`
	} `mapstructure:"redis"`
	JWT struct {
		AccessSecret  string        `mapstructure:"access_secret"`
		AccessExpiry  time.Duration `mapstructure:"access_expiry"`
		RefreshSecret string        `mapstructure:"refresh_secret"`
		RefreshExpiry time.Duration `mapstructure:"refresh_expiry"`
	} `mapstructure:"jwt"`
	Cookie struct {
		Domain   string `mapstructure:"domain"`
		SameSite string `mapstructure:"same_site"`
	} `mapstructure:"cookie"`
	Storage struct {
		Region        string `mapstructure:"region"`
		Bucket        string `mapstructure:"bucket"`
		Endpoint      string `mapstructure:"endpoint"`
		AccessKey     string `mapstructure:"access_key"`
		SecretKey     string `mapstructure:"secret_key"`
		PublicBaseURL string `mapstructure:"public_base_url"`
	} `mapstructure:"storage"`
	Cache struct {
		ProfileTTL time.Duration `mapstructure:"profile_ttl"`
	} `mapstructure:"cache"`
	RateLimit struct {
		LoginRPS   float64 `mapstructure:"login_rps"`
		LoginBurst int     `mapstructure:"login_burst"`
		CacheSize  int     `mapstructure:"cache_size"`
	} `mapstructure:"rate_limit"`
	Log struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`
}

var AppConfig Config

// LoadConfig reads config.yml from path, applies environment overrides
// (e.g. JWT_ACCESS_SECRET) and validates the result into AppConfig.
func LoadConfig(path string) error {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yml")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("unable to decode into struct: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	AppConfig = cfg
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.shutdown_timeout", 5*time.Second)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("redis.port", "6379")
	v.SetDefault("jwt.access_expiry", 15*time.Minute)
	v.SetDefault("jwt.refresh_expiry", 10*24*time.Hour)
	v.SetDefault("cookie.same_site", "strict")
	v.SetDefault("cache.profile_ttl", time.Minute)
	v.SetDefault("rate_limit.login_rps", 1)
	v.SetDefault("rate_limit.login_burst", 5)
	v.SetDefault("rate_limit.cache_size", 10000)
	v.SetDefault("log.level", "info")

	// Nested keys are only picked up from the environment when viper knows them.
	for _, key := range []string{
		"database.host", "database.user", "database.password", "database.name",
		"redis.host", "redis.password",
		"jwt.access_secret", "jwt.refresh_secret",
		"cookie.domain",
		"storage.region", "storage.bucket", "storage.endpoint",
		"storage.access_key", "storage.secret_key", "storage.public_base_url",
	} {
		v.SetDefault(key, "")
	}
}

// Validate checks the token settings. Access and refresh secrets must be
// independent of each other and the access window must be the shorter one.
func (c *Config) Validate() error {
	access, refresh := c.JWT.AccessSecret, c.JWT.RefreshSecret
	switch {
	case access == "" || refresh == "":
		return errors.New("jwt access_secret and refresh_secret are required")
	case access == refresh:
		return errors.New("jwt access_secret and refresh_secret must differ")
	case strings.Contains(access, refresh) || strings.Contains(refresh, access):
		return errors.New("jwt secrets must not be derived from each other")
	case c.JWT.AccessExpiry <= 0 || c.JWT.RefreshExpiry <= 0:
		return errors.New("jwt expiries must be positive")
	case c.JWT.AccessExpiry >= c.JWT.RefreshExpiry:
		return errors.New("jwt access_expiry must be shorter than refresh_expiry")
	}
	return nil
}
