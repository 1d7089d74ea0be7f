package classifier

import (
	"encoding/json"
	"fmt"
	"os"
)

// LabelsFile is the sidecar layout: {"classes": ["Aloe Vera", "Neem", ...]}
type LabelsFile struct {
	Classes []string `json:"classes"`
}

// LoadLabelsFile reads a sidecar label table
func LoadLabelsFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read labels: %w", err)
	}

	var labels LabelsFile
	if err := json.Unmarshal(data, &labels); err != nil {
		return nil, fmt.Errorf("failed to parse labels: %w", err)
	}
	return labels.Classes, nil
}

// ParseClassNames decodes the JSON array stored in the model metadata
func ParseClassNames(raw []byte) ([]string, error) {
	var names []string
	if err := json.Unmarshal(raw, &names); err != nil {
		return nil, fmt.Errorf("failed to parse class names: %w", err)
	}
	for i, name := range names {
		if name == "" {
			return nil, fmt.Errorf("%w: empty class name at index %d", ErrModelContract, i)
		}
	}
	return names, nil
}
