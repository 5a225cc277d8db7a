package utils

import (
	"encoding/json"
	"fmt"

	yaml3 "sigs.k8s.io/yaml/goyaml.v3"
)

// UnmarshalYAML decodes YAML 1.2 documents into objects described by
// json tags. Plain scalars like Y, n, on or off are kept as strings.
func UnmarshalYAML(data []byte, obj interface{}) error {
	var raw interface{}
	if err := yaml3.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		return nil
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("cannot convert yaml: %w", err)
	}
	return json.Unmarshal(data, obj)
}
