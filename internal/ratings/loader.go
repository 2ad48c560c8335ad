package ratings

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Loader reads the rating templates file.
type Loader struct {
	filePath string
}

// NewLoader creates a new ratings loader
func NewLoader(filePath string) *Loader {
	return &Loader{
		filePath: filePath,
	}
}

// Load reads and parses the templates file. An empty path yields an empty
// config: every stored rating then renders with its raw key.
func (l *Loader) Load() (Config, error) {
	if l.filePath == "" {
		return Config{}, nil
	}

	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read ratings file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("failed to parse ratings yaml: %w", err)
	}

	return config, nil
}
