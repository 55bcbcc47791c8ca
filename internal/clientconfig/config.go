// Package clientconfig persists the client's {client_id, url, token,
// version} state in the project's ".config" file.
package clientconfig

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
)

// FileName is the client config's on-disk name under the project root.
const FileName = ".config"

// Defaults per §6.2 `init`.
const (
	DefaultURL   = "127.0.0.1:8080"
	DefaultToken = "default"
)

var ErrInvalidURL = errors.New("invalid url")

// Config is the client's persisted sync state.
type Config struct {
	ClientID string `json:"client_id"`
	URL      string `json:"url"`
	Token    string `json:"token"`
	Version  int    `json:"version"`
	Path     string `json:"-"`
}

// New returns a fresh config with a generated client id, for `init`.
func New(path, url, token string) *Config {
	return &Config{
		ClientID: uuid.NewString(),
		URL:      url,
		Token:    token,
		Version:  0,
		Path:     path,
	}
}

func (c *Config) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("%w: empty", ErrInvalidURL)
	}
	if c.Version < 0 {
		return fmt.Errorf("version must be non-negative, got %d", c.Version)
	}
	return nil
}

func (c *Config) Save() error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(c.Path, data, 0o644)
}

func (c Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("client_id", c.ClientID),
		slog.String("url", c.URL),
		slog.Int("version", c.Version),
		slog.String("path", c.Path),
	)
}

// Load reads and parses the config at path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadFromReader(path, f)
}

func LoadFromReader(path string, r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Path = path
	return &cfg, nil
}

// Exists reports whether a config file is present at path.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
