package bitpat

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/gnoswap-labs/bitpat/internal"
	"github.com/gnoswap-labs/bitpat/internal/pattern"
)

// DefaultConfigFile is looked up in the working directory.
const DefaultConfigFile = ".bitpat.yaml"

// Config is the content of .bitpat.yaml.
type Config struct {
	Name            string `yaml:"name"`
	BuildTag        string `yaml:"build_tag"`
	OutputSuffix    string `yaml:"output_suffix"`
	LiteralBase     string `yaml:"literal_base"`
	MaxAlternatives int    `yaml:"max_alternatives"`
	CacheDir        string `yaml:"cache_dir,omitempty"`

	// Path is the file the configuration was read from, if any.
	Path string `yaml:"-"`
	// DryRun and InPlace come from the command line.
	DryRun  bool `yaml:"-"`
	InPlace bool `yaml:"-"`
}

func DefaultConfig() Config {
	def := internal.DefaultConfig()
	return Config{
		Name:            "bitpat",
		BuildTag:        def.BuildTag,
		OutputSuffix:    def.OutputSuffix,
		LiteralBase:     def.Base.String(),
		MaxAlternatives: 4096,
	}
}

// LoadConfig reads a configuration file. A missing file yields the
// defaults; keys absent from the file keep their default values.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()

	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return config, nil
	}
	if err != nil {
		return config, err
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	if err := decoder.Decode(&config); err != nil && !errors.Is(err, io.EOF) {
		return config, fmt.Errorf("parsing %s: %w", path, err)
	}
	config.Path = path

	return config, config.Validate()
}

func (c Config) Validate() error {
	if _, err := pattern.ParseBase(c.LiteralBase); err != nil {
		return err
	}
	if c.OutputSuffix == ".go" || filepath.Ext(c.OutputSuffix) != ".go" {
		return fmt.Errorf("output_suffix %q must end in .go and differ from it", c.OutputSuffix)
	}
	if c.MaxAlternatives < 0 {
		return fmt.Errorf("max_alternatives must not be negative, got %d", c.MaxAlternatives)
	}
	return nil
}

// WriteConfig writes c as YAML.
func WriteConfig(path string, c Config) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// EngineConfig translates the file configuration into engine settings.
func (c Config) EngineConfig() (internal.Config, error) {
	base, err := pattern.ParseBase(c.LiteralBase)
	if err != nil {
		return internal.Config{}, err
	}
	cfg := internal.Config{
		BuildTag:        c.BuildTag,
		OutputSuffix:    c.OutputSuffix,
		Base:            base,
		MaxAlternatives: c.MaxAlternatives,
		CacheDir:        c.CacheDir,
		DryRun:          c.DryRun,
		InPlace:         c.InPlace,
	}
	if c.Path != "" {
		cfg.Dependencies = []string{c.Path}
	}
	return cfg, nil
}
