package file

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/docmerge/pkg/domain"
	"gopkg.in/yaml.v3"
)

// LoadPolicy reads a policy snapshot. Files ending in .json are decoded as JSON,
// anything else as YAML.
func LoadPolicy(path string) (*domain.Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy: %w", err)
	}

	var p domain.Policy
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, &p)
	} else {
		err = yaml.Unmarshal(data, &p)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse policy %s: %w", path, err)
	}
	return &p, nil
}
