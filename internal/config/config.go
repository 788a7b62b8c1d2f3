package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application level configuration aggregated from env/config files.
type Config struct {
	Server struct {
		Addr           string
		RequestTimeout time.Duration
	}
	Database struct {
		Path string
	}
	Auth struct {
		Secret     string
		SessionTTL time.Duration
		RefreshTTL time.Duration
		BcryptCost int
	}
	Storage struct {
		Driver        string
		Dir           string
		Bucket        string
		KeyPrefix     string
		Region        string
		Endpoint      string
		MaxImageBytes int
	}
	AWS struct {
		Profile string
	}
	Challenges struct {
		Validate bool
		Catalog  string
	}
	Log struct {
		Level string
	}
}

// Load reads configuration from environment variables and optional config files.
func Load() (Config, error) {
	loadDotEnv()

	v := viper.New()
	v.SetEnvPrefix("PORTAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.addr", "0.0.0.0:8080")
	v.SetDefault("server.requesttimeout", "5s")
	v.SetDefault("database.path", "data/portal.db")
	v.SetDefault("auth.secret", "")
	v.SetDefault("auth.sessionttl", "15m")
	v.SetDefault("auth.refreshttl", "168h")
	v.SetDefault("auth.bcryptcost", 10)
	v.SetDefault("storage.driver", "local")
	v.SetDefault("storage.dir", "data/profile-images")
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.keyprefix", "profile-images")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.maximagebytes", 2<<20)
	v.SetDefault("aws.profile", "")
	v.SetDefault("challenges.validate", true)
	v.SetDefault("challenges.catalog", "")
	v.SetDefault("log.level", "info")

	// names used by earlier deployments of the service
	_ = v.BindEnv("auth.secret", "PORTAL_AUTH_SECRET", "TOKEN_SECRET")
	_ = v.BindEnv("auth.sessionttl", "PORTAL_AUTH_SESSIONTTL", "TOKEN_LIFE")
	_ = v.BindEnv("auth.refreshttl", "PORTAL_AUTH_REFRESHTTL", "TOKEN_REFRESH_LIFE")
	_ = v.BindEnv("storage.dir", "PORTAL_STORAGE_DIR", "PATH_PROFILE_IMAGE")

	v.SetConfigName("config")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // optional file

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// Validate reports settings the server cannot start with.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Auth.Secret) == "" {
		errs = append(errs, errors.New("auth secret is required"))
	}
	if c.Auth.SessionTTL <= 0 {
		errs = append(errs, errors.New("auth session ttl must be positive"))
	}
	if c.Auth.RefreshTTL <= 0 {
		errs = append(errs, errors.New("auth refresh ttl must be positive"))
	}
	if c.Auth.SessionTTL > 0 && c.Auth.RefreshTTL > 0 && c.Auth.RefreshTTL < c.Auth.SessionTTL {
		errs = append(errs, errors.New("auth refresh ttl must not be shorter than session ttl"))
	}
	switch c.Storage.Driver {
	case "local":
		if c.Storage.Dir == "" {
			errs = append(errs, errors.New("storage dir is required for the local driver"))
		}
	case "s3":
		if c.Storage.Bucket == "" {
			errs = append(errs, errors.New("storage bucket is required for the s3 driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage driver %q", c.Storage.Driver))
	}
	return errors.Join(errs...)
}

func loadDotEnv() {
	file, err := os.Open(".env")
	if err != nil {
		return
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		partsIndex := strings.Index(line, "=")
		if partsIndex <= 0 {
			continue
		}

		key := strings.TrimSpace(line[:partsIndex])
		value := strings.TrimSpace(line[partsIndex+1:])
		value = strings.Trim(value, `"'`)
		if key == "" {
			continue
		}

		if _, exists := os.LookupEnv(key); !exists {
			_ = os.Setenv(key, value)
		}
	}
}
