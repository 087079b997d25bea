package pipeline

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/go-collectivist/collectivist/pkg/collection"
)

// loadConfigIfPresent reads collection.yaml at path, returning a nil config
// (not an error) when the collection hasn't been analyzed yet.
func loadConfigIfPresent(path string) (*collection.Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, &collection.ConfigError{Path: path, Err: err}
	}
	var cfg collection.Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, &collection.ConfigError{Path: path, Err: err}
	}
	return &cfg, nil
}

// writeFile writes a rendered artifact, creating its parent directory if
// needed.
func writeFile(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0o644)
}
