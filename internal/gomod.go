package internal

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/hashicorp/go-version"
	"golang.org/x/mod/modfile"
)

// binaryLiterals is the first Go release accepting 0b literals.
var binaryLiterals = version.Must(version.NewVersion("1.13"))

// modVersions memoizes the go directive of the module governing each
// directory.
type modVersions struct {
	mu   sync.Mutex
	dirs map[string]*version.Version
}

func newModVersions() *modVersions {
	return &modVersions{dirs: make(map[string]*version.Version)}
}

// supportsBinaryLiterals reports whether code in dir may use 0b literals.
// Files outside any module, or in a module without a go directive, are
// assumed to be recent.
func (m *modVersions) supportsBinaryLiterals(dir string) bool {
	v := m.goVersion(dir)
	return v == nil || v.GreaterThanOrEqual(binaryLiterals)
}

func (m *modVersions) goVersion(dir string) *version.Version {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.dirs[abs]; ok {
		return v
	}

	v := readGoVersion(FindGoMod(abs))
	m.dirs[abs] = v
	return v
}

// FindGoMod returns the go.mod governing dir, or "" outside a module.
func FindGoMod(dir string) string {
	for {
		path := filepath.Join(dir, "go.mod")
		if _, err := os.Stat(path); err == nil {
			return path
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// ModulePath reads the module path declared in a go.mod file.
func ModulePath(gomod string) (string, error) {
	data, err := os.ReadFile(gomod)
	if err != nil {
		return "", err
	}
	return modfile.ModulePath(data), nil
}

func readGoVersion(gomod string) *version.Version {
	if gomod == "" {
		return nil
	}
	data, err := os.ReadFile(gomod)
	if err != nil {
		return nil
	}
	f, err := modfile.ParseLax(gomod, data, nil)
	if err != nil || f.Go == nil {
		return nil
	}
	v, err := version.NewVersion(f.Go.Version)
	if err != nil {
		return nil
	}
	return v
}
