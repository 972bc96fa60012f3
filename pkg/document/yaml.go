package document

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// FromYAML decodes a YAML mapping into a Map document. Integers keep an
// integer kind and floats become doubles; timestamps and other tagged
// scalars surface with the type yaml.v3 decodes them to.
func FromYAML(data []byte) (Map, error) {
	var m map[string]any
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("document: invalid YAML: %w", err)
	}
	if m == nil {
		m = map[string]any{}
	}
	return Map(m), nil
}
