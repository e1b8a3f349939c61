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

const minSecretSize = 32

// Config holds application level configuration aggregated from env/config files.
type Config struct {
	Server struct {
		Addr            string
		ShutdownTimeout time.Duration
	}
	Database struct {
		Driver string
		Path   string
		DSN    string
	}
	Auth struct {
		Issuer     string
		TokenTTL   time.Duration
		BcryptCost int
		LoginRate  float64
		LoginBurst int
	}
	Keys struct {
		Source   string
		ID       string
		Secret   string
		Bucket   string
		Object   string
		Region   string
		Endpoint string
		Refresh  time.Duration
		Retain   int
	}
	AWS struct {
		Profile string
	}
	Log struct {
		Level  string
		Format string
	}
}

// Load reads configuration from environment variables and optional config
// files and validates it for the server.
func Load() (Config, error) {
	cfg, err := Read()
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Read is Load without validation, for tools that use only part of the
// configuration.
func Read() (Config, error) {
	loadDotEnv(".env")

	v := viper.New()
	v.SetEnvPrefix("ALERTIFY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	v.SetConfigName("config")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		// the file is optional, but one that exists must parse
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", "0.0.0.0:8080")
	v.SetDefault("server.shutdowntimeout", 10*time.Second)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "data/alertify.db")
	v.SetDefault("database.dsn", "")
	v.SetDefault("auth.issuer", "alertify")
	v.SetDefault("auth.tokenttl", 24*time.Hour)
	v.SetDefault("auth.bcryptcost", 10)
	v.SetDefault("auth.loginrate", 1.0)
	v.SetDefault("auth.loginburst", 5)
	v.SetDefault("keys.source", "static")
	v.SetDefault("keys.id", "default")
	v.SetDefault("keys.secret", "")
	v.SetDefault("keys.bucket", "")
	v.SetDefault("keys.object", "alertify/keys.json")
	v.SetDefault("keys.region", "us-east-1")
	v.SetDefault("keys.endpoint", "")
	v.SetDefault("keys.refresh", 5*time.Minute)
	v.SetDefault("keys.retain", 3)
	v.SetDefault("aws.profile", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Validate rejects settings the server cannot start with.
func (c Config) Validate() error {
	var errs []error

	switch c.Database.Driver {
	case "sqlite":
		if strings.TrimSpace(c.Database.Path) == "" {
			errs = append(errs, errors.New("database.path is required for sqlite"))
		}
	case "postgres":
		if strings.TrimSpace(c.Database.DSN) == "" {
			errs = append(errs, errors.New("database.dsn is required for postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported database.driver %q", c.Database.Driver))
	}

	switch c.Keys.Source {
	case "static":
		switch {
		case strings.TrimSpace(c.Keys.Secret) == "":
			errs = append(errs, errors.New("keys.secret is required when keys.source is static"))
		case len(c.Keys.Secret) < minSecretSize:
			errs = append(errs, fmt.Errorf("keys.secret must be at least %d bytes", minSecretSize))
		}
	case "s3":
		if c.Keys.Bucket == "" || c.Keys.Object == "" {
			errs = append(errs, errors.New("keys.bucket and keys.object are required when keys.source is s3"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported keys.source %q", c.Keys.Source))
	}

	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("auth.tokenttl must be positive"))
	}
	if c.Auth.LoginRate <= 0 || c.Auth.LoginBurst <= 0 {
		errs = append(errs, errors.New("auth.loginrate and auth.loginburst must be positive"))
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("unsupported log.format %q", c.Log.Format))
	}

	return errors.Join(errs...)
}

func loadDotEnv(path string) {
	file, err := os.Open(path)
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
		line = strings.TrimPrefix(line, "export ")

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
