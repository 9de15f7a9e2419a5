package fuzzcfg

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FileConfig is the shape of the optional --config YAML file: defaults
// layered under the environment and CLI flags (flags win, then env, then
// this file), grounded in the nested-section struct the teacher's
// envconfig/file_config.go decodes its TOML config into.
type FileConfig struct {
	Run struct {
		Seed       int64  `yaml:"seed"`
		Iterations int    `yaml:"iterations"`
		OutputDir  string `yaml:"output_dir"`
	} `yaml:"run"`
	Backend struct {
		Path      string `yaml:"path"`
		TimeoutMS int    `yaml:"timeout_ms"`
	} `yaml:"backend"`
	Tensor struct {
		Format string `yaml:"format"`
	} `yaml:"tensor"`
	Logging struct {
		Debug  bool   `yaml:"debug"`
		Format string `yaml:"format"`
	} `yaml:"logging"`
}

// LoadFileConfig reads and parses a YAML config file. A file that cannot
// be read or parsed is an error; callers only invoke it when --config was
// given.
func LoadFileConfig(path string) (*FileConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("fuzzcfg: read config %s: %w", path, err)
	}
	var cfg FileConfig
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("fuzzcfg: parse config %s: %w", path, err)
	}
	return &cfg, nil
}
