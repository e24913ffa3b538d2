package internal

import (
	"bytes"
	"fmt"
	"go/format"
	"go/parser"
	"go/token"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/gnoswap-labs/bitpat/internal/pattern"
	"github.com/gnoswap-labs/bitpat/internal/rewrite"
)

// Config controls how the engine rewrites and writes files.
type Config struct {
	// BuildTag is the constraint stripped from generated outputs.
	BuildTag string
	// OutputSuffix replaces ".go" in the output filename.
	OutputSuffix    string
	Base            pattern.Base
	MaxAlternatives int
	// CacheDir enables the result cache when set.
	CacheDir string
	// Dependencies invalidate the cache when they change, typically the
	// configuration file.
	Dependencies []string
	// DryRun prints outputs instead of writing them.
	DryRun bool
	// InPlace rewrites the input files themselves.
	InPlace bool
}

func DefaultConfig() Config {
	return Config{
		BuildTag:     "bitpat",
		OutputSuffix: "_bitpat.go",
		Base:         pattern.Binary,
	}
}

// Result describes one processed file.
type Result struct {
	Input string
	// Output is empty when nothing was written.
	Output   string
	Switches int
	Cached   bool
}

// Engine rewrites files. It is safe for concurrent use.
type Engine struct {
	cfg    Config
	logger *zap.Logger
	cache  *Cache
	out    io.Writer
	outMu  sync.Mutex
	mods   *modVersions

	watcher    *fsnotify.Watcher
	watchDirs  []string
	isWatching bool
	done       chan struct{}
}

// NewEngine creates an engine. The cache directory is created when missing.
func NewEngine(cfg Config, logger *zap.Logger) (*Engine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.OutputSuffix == "" {
		cfg.OutputSuffix = DefaultConfig().OutputSuffix
	}

	e := &Engine{
		cfg:    cfg,
		logger: logger,
		out:    os.Stdout,
		mods:   newModVersions(),
	}

	if cfg.CacheDir != "" {
		cache, err := NewCache(cfg.CacheDir)
		if err != nil {
			return nil, err
		}
		if err := cache.SetDependencies(cfg.Dependencies...); err != nil {
			return nil, err
		}
		e.cache = cache
	}

	return e, nil
}

// SetOutput redirects dry-run output.
func (e *Engine) SetOutput(w io.Writer) {
	e.outMu.Lock()
	defer e.outMu.Unlock()
	e.out = w
}

// OutputPath returns where the rewrite of filename is written.
func (e *Engine) OutputPath(filename string) string {
	if e.cfg.InPlace {
		return filename
	}
	return strings.TrimSuffix(filename, ".go") + e.cfg.OutputSuffix
}

// IsOutput reports whether filename is a file the engine writes.
func (e *Engine) IsOutput(filename string) bool {
	return !e.cfg.InPlace && strings.HasSuffix(filename, e.cfg.OutputSuffix)
}

// Run rewrites one file and writes the result. Files without marked
// switches and generated files are left alone.
func (e *Engine) Run(filename string) (Result, error) {
	res := Result{Input: filename}
	logger := e.logger.With(zap.String("file", filename))

	if e.IsOutput(filename) {
		logger.Debug("skipping generated output")
		return res, nil
	}

	if e.cache != nil && !e.cfg.DryRun {
		if entry, ok := e.cache.Get(filename); ok {
			logger.Debug("unchanged since last run", zap.Int("switches", entry.Switches))
			res.Output = entry.Output
			res.Switches = entry.Switches
			res.Cached = true
			return res, nil
		}
	}

	src, err := os.ReadFile(filename)
	if err != nil {
		return res, fmt.Errorf("failed to read file: %w", err)
	}
	if rewrite.IsGenerated(src) {
		logger.Debug("skipping generated file")
		return res, nil
	}

	out, n, err := e.RunSource(filename, src)
	if err != nil {
		return res, err
	}
	res.Switches = n
	if n == 0 {
		logger.Debug("no marked switches")
		if !e.cfg.DryRun {
			e.remember(logger, filename, CacheEntry{})
		}
		return res, nil
	}

	output := e.OutputPath(filename)
	if e.cfg.DryRun {
		e.outMu.Lock()
		defer e.outMu.Unlock()
		fmt.Fprintf(e.out, "// %s\n%s", output, out)
		return res, nil
	}

	if err := os.WriteFile(output, out, 0o644); err != nil {
		return res, fmt.Errorf("failed to write %s: %w", output, err)
	}
	res.Output = output
	logger.Info("rewrote file", zap.String("output", output), zap.Int("switches", n))

	e.remember(logger, filename, CacheEntry{Output: output, Switches: n})
	return res, nil
}

func (e *Engine) remember(logger *zap.Logger, filename string, entry CacheEntry) {
	if e.cache == nil {
		return
	}
	if err := e.cache.Set(filename, entry); err != nil {
		logger.Warn("failed to update cache", zap.Error(err))
	}
}

// RunSource rewrites src and returns the formatted result along with the
// number of switches rewritten. The result is nil when there was nothing to
// rewrite.
func (e *Engine) RunSource(filename string, src []byte) ([]byte, int, error) {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, filename, src, parser.ParseComments)
	if err != nil {
		return nil, 0, fmt.Errorf("error parsing file: %w", err)
	}

	cfg := rewrite.Config{
		Base:            e.literalBase(filename),
		MaxAlternatives: e.cfg.MaxAlternatives,
	}
	n, err := rewrite.New(fset, cfg, e.logger.With(zap.String("file", filename))).Rewrite(f)
	if err != nil || n == 0 {
		return nil, 0, err
	}

	if !e.cfg.InPlace {
		rewrite.StripBuildTag(f, e.cfg.BuildTag)
		out, err := rewrite.Format(fset, f)
		return out, n, err
	}

	var buf bytes.Buffer
	if err := format.Node(&buf, fset, f); err != nil {
		return nil, 0, fmt.Errorf("failed to format file: %w", err)
	}
	return buf.Bytes(), n, nil
}

// literalBase downgrades binary literals for modules older than Go 1.13,
// which cannot parse them.
func (e *Engine) literalBase(filename string) pattern.Base {
	if e.cfg.Base != pattern.Binary {
		return e.cfg.Base
	}
	if e.mods.supportsBinaryLiterals(filepath.Dir(filename)) {
		return pattern.Binary
	}
	e.logger.Warn("module predates binary literals, writing hexadecimal", zap.String("file", filename))
	return pattern.Hexadecimal
}

// SourceCode stores the content of a source code file.
type SourceCode struct {
	Lines []string
}

func ReadSourceCode(filename string) (*SourceCode, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return NewSourceCode(content), nil
}

func NewSourceCode(content []byte) *SourceCode {
	return &SourceCode{Lines: strings.Split(string(content), "\n")}
}
