package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// envPrefix is the environment variable prefix, BILI_SECTION_KEY.
const envPrefix = "BILI"

// FileLoader loads configuration from YAML files and environment variables.
type FileLoader struct {
	configPath string
}

// NewFileLoader creates a loader. An empty path falls back to searching
// config.yaml in ./config and the working directory.
func NewFileLoader(configPath string) *FileLoader {
	return &FileLoader{configPath: configPath}
}

// Load reads the config file, applies env overrides and validates the result.
func (l *FileLoader) Load() (*Config, error) {
	v := viper.New()

	if l.configPath != "" {
		v.SetConfigFile(l.configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// Missing file is fine when everything needed comes from env
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// LoadFromEnv builds the configuration from environment variables only.
func LoadFromEnv() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config from env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// setDefaults sets default configuration values. Every key is registered
// here, empty ones included: viper only applies env overrides to keys it
// already knows about.
func setDefaults(v *viper.Viper) {
	// Credential defaults
	v.SetDefault("credential.sessdata", "")
	v.SetDefault("credential.bili_jct", "")
	v.SetDefault("credential.buvid3", "")
	v.SetDefault("credential.dedeuserid", "")
	v.SetDefault("credential.ac_time_value", "")

	// HTTP defaults; empty user_agent/referer keep the client defaults
	v.SetDefault("http.timeout", 20*time.Second)
	v.SetDefault("http.user_agent", "")
	v.SetDefault("http.referer", "")
	v.SetDefault("http.rate_limit.rps", 0.0)
	v.SetDefault("http.rate_limit.burst", 1)

	// Watcher defaults
	v.SetDefault("watcher.interval", 6*time.Second)
	v.SetDefault("watcher.auto_ack", false)

	// Redis defaults; empty addr disables redis
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.seen_ttl", 30*24*time.Hour)
}

// CreateExampleConfig writes a commented example configuration file.
func CreateExampleConfig(outputPath string) error {
	exampleYAML := `# bilibili-api SDK configuration example.
# Every key can be overridden via env, e.g. BILI_CREDENTIAL_SESSDATA.

credential:
  # Login cookies, copied from a logged-in browser session
  sessdata: ""
  bili_jct: ""
  buvid3: ""
  dedeuserid: ""
  ac_time_value: ""

http:
  timeout: 20s
  # Leave empty to use the built-in browser UA and referer
  user_agent: ""
  referer: ""
  rate_limit:
    # Requests per second; 0 disables client-side limiting
    rps: 0
    burst: 1

watcher:
  # Poll interval for new messages
  interval: 6s
  # Mark watched sessions as read after emitting their messages
  auto_ack: false

redis:
  # Optional seen-store backend; empty addr keeps state in memory
  addr: ""
  password: ""
  db: 0
  # How long per-session read positions are kept
  seen_ttl: 720h
`

	dir := filepath.Dir(outputPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(outputPath, []byte(exampleYAML), 0644); err != nil {
		return fmt.Errorf("failed to write example config: %w", err)
	}
	return nil
}
