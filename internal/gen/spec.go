package gen

import (
	"errors"
	"fmt"
	"go/token"
	"os"

	"gopkg.in/yaml.v3"
)

// Spec is a table of decoders over one unsigned integer type.
type Spec struct {
	Package  string    `yaml:"package"`
	Type     string    `yaml:"type"`
	Decoders []Decoder `yaml:"decoders"`
}

// Decoder names one pattern.
type Decoder struct {
	Name    string `yaml:"name"`
	Pattern string `yaml:"pattern"`
	Doc     string `yaml:"doc,omitempty"`
}

var typeBits = map[string]int{
	"uint8":  8,
	"uint16": 16,
	"uint32": 32,
	"uint64": 64,
}

// LoadSpec reads a decoder table from a YAML file.
func LoadSpec(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseSpec(data)
}

func ParseSpec(data []byte) (*Spec, error) {
	var s Spec
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing decoder table: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Spec) Validate() error {
	if !token.IsIdentifier(s.Package) {
		return fmt.Errorf("invalid package name %q", s.Package)
	}
	if _, ok := typeBits[s.Type]; !ok {
		return fmt.Errorf("unsupported type %q: want uint8, uint16, uint32 or uint64", s.Type)
	}
	if len(s.Decoders) == 0 {
		return errors.New("no decoders")
	}
	seen := make(map[string]bool, len(s.Decoders))
	for _, d := range s.Decoders {
		name := upperFirst(d.Name)
		if !token.IsIdentifier(name) {
			return fmt.Errorf("invalid decoder name %q", d.Name)
		}
		if seen[name] {
			return fmt.Errorf("duplicate decoder %q", d.Name)
		}
		seen[name] = true
	}
	return nil
}

func upperFirst(s string) string {
	if s == "" || s[0] < 'a' || s[0] > 'z' {
		return s
	}
	return string(s[0]&^0x20) + s[1:]
}
