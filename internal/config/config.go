package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	envPrefix  = "CLASSPICK"
	configName = "classpick"
	configType = "toml"
)

type Config struct {
	PortalURL string

	// scheduler
	PollInterval   time.Duration
	AttemptTimeout time.Duration

	// login
	LoginMaxAttempts int
	LoginDelay       time.Duration

	SuccessLogPath string
	FailureLogPath string

	// optional: attempt history in postgres
	DatabaseURL string

	CredentialsPath string
	SecretKey       []byte

	StatusListen string

	LogLevel  string
	LogFormat string
}

// Load reads classpick.toml from the working directory or
// $HOME/.config/classpick, then lets CLASSPICK_* environment variables
// override it. A missing config file is not an error.
func Load(v *viper.Viper) (Config, error) {
	if v == nil {
		v = viper.New()
	}
	home, _ := os.UserHomeDir()
	configDir := filepath.Join(home, ".config", "classpick")

	v.SetConfigName(configName)
	v.SetConfigType(configType)
	v.AddConfigPath(".")
	v.AddConfigPath(configDir)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("portal.url", "")
	v.SetDefault("poll.interval", "500ms")
	v.SetDefault("poll.attempt_timeout", "10s")
	v.SetDefault("login.max_attempts", 0)
	v.SetDefault("login.delay", "2s")
	v.SetDefault("logs.success_path", "successfulRegistrations.log")
	v.SetDefault("logs.failure_path", "unsuccessfulRegistrations.log")
	v.SetDefault("database.url", "")
	v.SetDefault("credentials.path", filepath.Join(configDir, "credentials.toml"))
	v.SetDefault("secret_key", "")
	v.SetDefault("status.listen", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := Config{
		PortalURL:        strings.TrimSpace(v.GetString("portal.url")),
		LoginMaxAttempts: v.GetInt("login.max_attempts"),
		SuccessLogPath:   v.GetString("logs.success_path"),
		FailureLogPath:   v.GetString("logs.failure_path"),
		DatabaseURL:      strings.TrimSpace(v.GetString("database.url")),
		CredentialsPath:  v.GetString("credentials.path"),
		StatusListen:     strings.TrimSpace(v.GetString("status.listen")),
		LogLevel:         v.GetString("log.level"),
		LogFormat:        v.GetString("log.format"),
	}

	var err error
	if cfg.PollInterval, err = duration(v, "poll.interval"); err != nil {
		return Config{}, err
	}
	if cfg.AttemptTimeout, err = duration(v, "poll.attempt_timeout"); err != nil {
		return Config{}, err
	}
	if cfg.LoginDelay, err = duration(v, "login.delay"); err != nil {
		return Config{}, err
	}
	if cfg.PollInterval <= 0 {
		return Config{}, fmt.Errorf("invalid %s: must be positive", envName("poll.interval"))
	}
	if cfg.AttemptTimeout <= 0 {
		return Config{}, fmt.Errorf("invalid %s: must be positive", envName("poll.attempt_timeout"))
	}
	if cfg.LoginDelay <= 0 {
		return Config{}, fmt.Errorf("invalid %s: must be positive", envName("login.delay"))
	}
	if cfg.LoginMaxAttempts < 0 {
		return Config{}, fmt.Errorf("invalid %s: must be >= 0", envName("login.max_attempts"))
	}
	if cfg.SuccessLogPath == "" || cfg.FailureLogPath == "" {
		return Config{}, errors.New("log paths must not be empty")
	}

	if raw := strings.TrimSpace(v.GetString("secret_key")); raw != "" {
		if cfg.SecretKey, err = decodeB64(raw); err != nil {
			return Config{}, fmt.Errorf("%s: %w", envName("secret_key"), err)
		}
	}
	return cfg, nil
}

// RequirePortal reports a missing portal url, which only the run command needs.
func (c Config) RequirePortal() error {
	if c.PortalURL == "" {
		return fmt.Errorf("%s is required", envName("portal.url"))
	}
	return nil
}

// RequireSecret reports a missing secret key, which the credentials store needs.
func (c Config) RequireSecret() error {
	if len(c.SecretKey) == 0 {
		return fmt.Errorf("%s is required (base64, 32 bytes; see `classpick keys`)", envName("secret_key"))
	}
	return nil
}

func duration(v *viper.Viper, key string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(v.GetString(key)))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", envName(key), err)
	}
	return d, nil
}

func envName(key string) string {
	return envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

func decodeB64(s string) ([]byte, error) {
	if b, err := os.ReadFile(s); err == nil {
		// allow pointing at a mounted secret file
		s = strings.TrimSpace(string(b))
	}
	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	return base64.RawStdEncoding.DecodeString(s)
}
