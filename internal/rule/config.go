package rule

import (
	"strings"

	"gopkg.in/yaml.v3"
)

// PreConfig is the raw, as-parsed shape of the YAML config document, before
// rule names have been resolved and directory paths canonicalized.
type PreConfig struct {
	NoInclude   bool                 `yaml:"no-include"`
	Directories []PreDirectory       `yaml:"directories"`
	Skips       []string             `yaml:"skips"`
	Rules       map[string]PreRule   `yaml:"rules"`
}

// PreDirectory is a directory entry before rule names are resolved.
type PreDirectory struct {
	Path  string   `yaml:"path"`
	Rules []string `yaml:"rules"`
}

// PreRule is either a concrete Rule or a named union of other rules. It
// mirrors an untagged sum type: the YAML decodes as a mapping with
// `excludes`/`if-exists` keys for a concrete rule, or as a bare sequence of
// strings for a union reference list.
type PreRule struct {
	Concrete *Rule
	Union    []string
}

func (p *PreRule) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.SequenceNode {
		var names []string
		if err := value.Decode(&names); err != nil {
			return err
		}
		p.Union = names
		return nil
	}

	var raw struct {
		Excludes []string `yaml:"excludes"`
		IfExists []string `yaml:"if-exists"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	p.Concrete = &Rule{Excludes: raw.Excludes, IfExists: raw.IfExists}
	return nil
}

func (p PreRule) MarshalYAML() (interface{}, error) {
	if p.Concrete != nil {
		return struct {
			Excludes []string `yaml:"excludes"`
			IfExists []string `yaml:"if-exists,omitempty"`
		}{Excludes: p.Concrete.Excludes, IfExists: p.Concrete.IfExists}, nil
	}
	return p.Union, nil
}

// ParsePreConfig decodes a YAML document into a PreConfig.
func ParsePreConfig(data []byte) (*PreConfig, error) {
	var pc PreConfig
	if err := yaml.Unmarshal(data, &pc); err != nil {
		return nil, &DeserializeError{Cause: err}
	}
	return &pc, nil
}

// isGlob reports whether a skip entry should be matched as a glob pattern
// rather than resolved to a single literal path.
func isGlob(s string) bool {
	return strings.ContainsAny(s, "*?[")
}
