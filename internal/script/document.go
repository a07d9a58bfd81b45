package script

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/vango-dev/livestore/internal/errors"
)

// LoadDocument reads a YAML or JSON document.
func LoadDocument(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New("E302").
			WithDetail("Cannot read " + path).
			Wrap(err)
	}
	return ParseDocument(data)
}

// ParseDocument decodes a YAML or JSON document. An empty document is an
// empty mapping.
func ParseDocument(data []byte) (any, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.New("E302").Wrap(err)
	}
	if doc == nil {
		return map[string]any{}, nil
	}
	return doc, nil
}
