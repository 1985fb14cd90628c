package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// ZachotDir is the project-local override directory.
const ZachotDir = ".zachot"

type Config struct {
	BaseURL       string `toml:"base_url"`
	Token         string `toml:"token"`
	DefaultModule string `toml:"default_module"`
	DefaultVolume int    `toml:"default_volume"`
}

const DefaultConfigToml = `# Zachot configuration

base_url = "https://api.zachot.example"
token = ""

# Pre-selected work family for new wizards: text, presentation,
# task or document_import. Empty means ask.
default_module = ""
default_volume = 10
`

// Default returns the built-in configuration.
func Default() Config {
	var cfg Config
	_, _ = toml.Decode(DefaultConfigToml, &cfg)
	return cfg
}

// Load reads the user-global config and merges a project-local
// override on top, when either exists. Missing files are not errors.
func Load(root string) (Config, error) {
	cfg := Default()
	if configDir, err := os.UserConfigDir(); err == nil {
		if err := mergeFile(filepath.Join(configDir, "zachot", "config.toml"), &cfg); err != nil {
			return cfg, err
		}
	}
	if err := mergeFile(filepath.Join(root, ZachotDir, "config.toml"), &cfg); err != nil {
		return cfg, err
	}
	if token := os.Getenv("ZACHOT_TOKEN"); token != "" {
		cfg.Token = token
	}
	return cfg, nil
}

func mergeFile(path string, cfg *Config) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	var over Config
	if err := toml.Unmarshal(raw, &over); err != nil {
		return err
	}
	if over.BaseURL != "" {
		cfg.BaseURL = over.BaseURL
	}
	if over.Token != "" {
		cfg.Token = over.Token
	}
	if over.DefaultModule != "" {
		cfg.DefaultModule = over.DefaultModule
	}
	if over.DefaultVolume > 0 {
		cfg.DefaultVolume = over.DefaultVolume
	}
	return nil
}

// WriteDefault creates the user-global config file if absent and
// returns its path.
func WriteDefault() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(configDir, "zachot")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, "config.toml")
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}
	if err := os.WriteFile(path, []byte(DefaultConfigToml), 0o644); err != nil {
		return "", err
	}
	return path, nil
}
