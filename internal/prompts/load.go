package prompts

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load returns the default catalog with entries overridden from the YAML
// file at path. An empty path returns the defaults unchanged. Override
// files use a flat key-to-text mapping; unknown keys and empty texts are
// rejected so typos surface at startup instead of on a live call.
func Load(path string) (*Catalog, error) {
	cat := Defaults()
	if strings.TrimSpace(path) == "" {
		return cat, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("prompts: read %s: %w", path, err)
	}
	if err := cat.apply(data, path); err != nil {
		return nil, err
	}
	return cat, nil
}

func (c *Catalog) apply(data []byte, source string) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	var overrides map[string]string
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return fmt.Errorf("prompts: decode %s: %w", source, err)
	}
	for key, text := range overrides {
		if !c.Has(key) {
			return fmt.Errorf("prompts: %s: unknown key %q", source, key)
		}
		if strings.TrimSpace(text) == "" {
			return fmt.Errorf("prompts: %s: empty text for key %q", source, key)
		}
		c.texts[key] = text
	}
	return nil
}
