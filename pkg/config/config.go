package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config wraps a private viper instance so tests and commands never share
// global configuration state.
type Config struct {
	v               *viper.Viper
	dir             string
	filePath        string
	credentialsPath string
}

// getConfigDir returns platform-specific config directory
func getConfigDir() (string, error) {
	if runtime.GOOS == "windows" {
		// Windows: %LOCALAPPDATA%\snapgram
		appData := os.Getenv("LOCALAPPDATA")
		if appData == "" {
			appData = os.Getenv("APPDATA")
		}
		if appData == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			appData = home
		}
		return filepath.Join(appData, "snapgram"), nil
	}

	// Unix-like (macOS, Linux): ~/.config/snapgram
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "snapgram"), nil
}

// getSystemConfigPaths returns platform-specific system config paths
func getSystemConfigPaths() []string {
	if runtime.GOOS == "windows" {
		return []string{filepath.Join(os.Getenv("ProgramFiles"), "Snapgram", "config.toml")}
	}

	return []string{
		"/etc/snapgram/config.toml",
		"/usr/local/etc/snapgram/config.toml",
	}
}

// Load builds the configuration. Precedence, lowest first: defaults,
// system config, user config, .env file, SNAPGRAM_* environment.
func Load(configPath string) (*Config, error) {
	c := &Config{v: viper.New()}

	var err error
	if configPath != "" {
		c.dir = filepath.Dir(configPath)
		c.filePath = configPath
	} else {
		c.dir, err = getConfigDir()
		if err != nil {
			return nil, err
		}
		c.filePath = filepath.Join(c.dir, "config.toml")
	}

	if err := os.MkdirAll(c.dir, 0700); err != nil {
		return nil, err
	}
	c.credentialsPath = filepath.Join(c.dir, "credentials")

	// A missing .env is the normal case outside development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	c.v.SetConfigType("toml")
	c.setDefaults()
	c.bindEnv()

	for _, sysConfigPath := range getSystemConfigPaths() {
		if _, err := os.Stat(sysConfigPath); err == nil {
			c.v.SetConfigFile(sysConfigPath)
			_ = c.v.ReadInConfig()
			break
		}
	}

	if _, err := os.Stat(c.filePath); err == nil {
		c.v.SetConfigFile(c.filePath)
		if err := c.v.MergeInConfig(); err != nil {
			return nil, err
		}
	}

	return c, nil
}

func (c *Config) setDefaults() {
	c.v.SetDefault("api.base_url", "http://localhost:8080")
	c.v.SetDefault("api.timeout", 30)
	c.v.SetDefault("api.page_size", 10)
	c.v.SetDefault("api.ws_url", "ws://localhost:8080/ws")
	c.v.SetDefault("media.base_url", "http://localhost:8080")

	c.v.SetDefault("kakao.client_id", "")
	c.v.SetDefault("kakao.redirect_uri", "http://localhost:3000/oauth/kakao/callback")

	c.v.SetDefault("output.format", "text")

	c.v.SetDefault("log.level", "info")
	c.v.SetDefault("log.file", filepath.Join(c.dir, "snapgram.log"))

	c.v.SetDefault("mock.addr", ":8080")
	c.v.SetDefault("mock.jwt_secret", "snapgram-dev-secret")
	c.v.SetDefault("mock.seed_users", 8)
}

// bindEnv maps SNAPGRAM_API_BASE_URL style variables onto keys. The Kakao
// keys also accept the bare names the web front-end used.
func (c *Config) bindEnv() {
	c.v.SetEnvPrefix("snapgram")
	c.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	c.v.AutomaticEnv()

	_ = c.v.BindEnv("kakao.client_id", "SNAPGRAM_KAKAO_CLIENT_ID", "KAKAO_CLIENT_ID", "REACT_APP_KAKAO_CLIENT_ID")
	_ = c.v.BindEnv("kakao.redirect_uri", "SNAPGRAM_KAKAO_REDIRECT_URI", "KAKAO_REDIRECT_URI", "REACT_APP_KAKAO_REDIRECT_URI")
}

// expandPath expands ~ to home directory
func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// GetString returns a string configuration value
func (c *Config) GetString(key string) string {
	value := c.v.GetString(key)
	if key == "log.file" {
		return expandPath(value)
	}
	return value
}

// GetInt returns an int configuration value
func (c *Config) GetInt(key string) int {
	return c.v.GetInt(key)
}

// GetBool returns a bool configuration value
func (c *Config) GetBool(key string) bool {
	return c.v.GetBool(key)
}

// Timeout returns api.timeout, stored in seconds.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.v.GetInt("api.timeout")) * time.Second
}

// Set overrides a value for the lifetime of this process only.
func (c *Config) Set(key string, value interface{}) {
	c.v.Set(key, value)
}

// Save persists a value to the user config file.
func (c *Config) Save(key string, value interface{}) error {
	c.v.Set(key, value)
	return c.v.WriteConfigAs(c.filePath)
}

// Dir returns the configuration directory path
func (c *Config) Dir() string {
	return c.dir
}

// FilePath returns the user config file path
func (c *Config) FilePath() string {
	return c.filePath
}

// CredentialsPath returns the path to the credentials file
func (c *Config) CredentialsPath() string {
	return c.credentialsPath
}
