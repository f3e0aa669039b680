package config

import (
	"bytes"
	"os"

	"gopkg.in/yaml.v3"
)

// applyFile decodes a YAML file over cfg. Keys present in the file replace
// the values loaded from the environment; ${VAR} references are expanded
// first and unknown keys are rejected.
func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	data = []byte(os.ExpandEnv(string(data)))

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	return decoder.Decode(cfg)
}
