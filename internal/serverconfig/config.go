// Package serverconfig persists the server's {server_id, url, token, port,
// version} state in config.json.
package serverconfig

import (
	"os"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
)

// FileName is the server config's on-disk name.
const FileName = "config.json"

// DefaultPort is the port `init` writes when none is given.
const DefaultPort = 8080

// Config is the server's persisted state. Version is the current version
// number, advanced only by serverstore.Append.
type Config struct {
	ServerID string `json:"server_id"`
	URL      string `json:"url"`
	Token    string `json:"token"`
	Port     int    `json:"port"`
	Version  int    `json:"version"`
}

// New returns a fresh config for `init <token>`: port 8080, version 0.
func New(token string) *Config {
	return &Config{
		ServerID: uuid.NewString(),
		Port:     DefaultPort,
		Token:    token,
		Version:  0,
	}
}

// Load reads config.json from dir.
func Load(dir string) (*Config, error) {
	data, err := os.ReadFile(path(dir))
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes the config to dir, replacing any existing file.
func (c *Config) Save(dir string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path(dir), data, 0o644)
}

func path(dir string) string {
	if dir == "" {
		return FileName
	}
	return dir + string(os.PathSeparator) + FileName
}
