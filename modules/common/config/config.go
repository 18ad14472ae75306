package config

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Keys understood by the loader. Each is also read from the environment
// variable of the same name in upper case.
const (
	KeyPort            = "port"
	KeyViduAPIKey      = "vite_vidu_api_key"
	KeyViduBaseURL     = "vidu_api_base_url"
	KeyRequestTimeout  = "vidu_request_timeout"
	KeyShutdownTimeout = "shutdown_timeout"
	KeyLogLevel        = "log_level"
	KeyLogFormat       = "log_format"
)

const (
	DefaultPort            = "8000"
	DefaultViduBaseURL     = "https://api.vidu.com"
	DefaultRequestTimeout  = 30 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "console"
)

// Config - server settings. ViduAPIKey may be empty: the server still starts
// and the data endpoints answer with a configuration error.
type Config struct {
	// Server
	Port            string
	ShutdownTimeout time.Duration

	// Vidu API
	ViduAPIKey     string
	ViduBaseURL    string
	RequestTimeout time.Duration

	// Logging
	LogLevel  string
	LogFormat string

	// EnvFileLoaded reports whether a .env file was found and applied.
	EnvFileLoaded bool
	// ConfigFileUsed is the config file viper read, if any.
	ConfigFileUsed string
}

// LoadConfig - reads flags, .env, an optional config.yaml and the process
// environment, in that order of precedence (flags win).
func LoadConfig(args []string) (*Config, error) {
	fs := pflag.NewFlagSet("vidu-proxy-server", pflag.ContinueOnError)
	fs.String("port", "", "port to listen on (env PORT)")
	fs.String("log-level", "", "debug, info, warn or error (env LOG_LEVEL)")
	fs.String("log-format", "", "console or json (env LOG_FORMAT)")
	fs.String("vidu-base-url", "", "Vidu API base URL (env VIDU_API_BASE_URL)")
	configFile := fs.String("config", "", "path to a config file")
	envFile := fs.String("env-file", ".env", "path to a .env file")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	// .env 파일은 선택 사항
	envLoaded := godotenv.Load(*envFile) == nil

	v := viper.New()
	v.SetDefault(KeyPort, DefaultPort)
	v.SetDefault(KeyViduBaseURL, DefaultViduBaseURL)
	v.SetDefault(KeyRequestTimeout, DefaultRequestTimeout)
	v.SetDefault(KeyShutdownTimeout, DefaultShutdownTimeout)
	v.SetDefault(KeyLogLevel, DefaultLogLevel)
	v.SetDefault(KeyLogFormat, DefaultLogFormat)

	v.AutomaticEnv()
	// VIDU_API_KEY is accepted for deployments that do not use the VITE_ prefix.
	if err := v.BindEnv(KeyViduAPIKey, "VITE_VIDU_API_KEY", "VIDU_API_KEY"); err != nil {
		return nil, fmt.Errorf("bind env: %w", err)
	}

	for key, flag := range map[string]string{
		KeyPort:        "port",
		KeyLogLevel:    "log-level",
		KeyLogFormat:   "log-format",
		KeyViduBaseURL: "vidu-base-url",
	} {
		if err := v.BindPFlag(key, fs.Lookup(flag)); err != nil {
			return nil, fmt.Errorf("bind flag %s: %w", flag, err)
		}
	}

	if err := readConfigFile(v, *configFile); err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:            strings.TrimSpace(v.GetString(KeyPort)),
		ShutdownTimeout: v.GetDuration(KeyShutdownTimeout),
		ViduAPIKey:      strings.TrimSpace(v.GetString(KeyViduAPIKey)),
		ViduBaseURL:     strings.TrimRight(strings.TrimSpace(v.GetString(KeyViduBaseURL)), "/"),
		RequestTimeout:  v.GetDuration(KeyRequestTimeout),
		LogLevel:        strings.ToLower(v.GetString(KeyLogLevel)),
		LogFormat:       strings.ToLower(v.GetString(KeyLogFormat)),
		EnvFileLoaded:   envLoaded,
		ConfigFileUsed:  v.ConfigFileUsed(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func readConfigFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config file %s: %w", path, err)
		}
		return nil
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("read config file: %w", err)
		}
	}
	return nil
}

// Validate - checks the values the server cannot run without. A missing API
// key is deliberately not an error here.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if p, err := strconv.Atoi(c.Port); err != nil || p <= 0 || p > 65535 {
		return fmt.Errorf("PORT %q is not a valid port", c.Port)
	}

	u, err := url.Parse(c.ViduBaseURL)
	if err != nil {
		return fmt.Errorf("VIDU_API_BASE_URL: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("VIDU_API_BASE_URL %q must be an absolute http(s) URL", c.ViduBaseURL)
	}

	if c.RequestTimeout <= 0 {
		return errors.New("VIDU_REQUEST_TIMEOUT must be positive")
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("SHUTDOWN_TIMEOUT must be positive")
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOG_LEVEL %q is not one of debug, info, warn, error", c.LogLevel)
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("LOG_FORMAT %q is not one of console, json", c.LogFormat)
	}
	return nil
}

// HasAPIKey reports whether the Vidu credential is configured.
func (c *Config) HasAPIKey() bool {
	return c.ViduAPIKey != ""
}

// Addr - listen address for http.Server
func (c *Config) Addr() string {
	return ":" + c.Port
}
