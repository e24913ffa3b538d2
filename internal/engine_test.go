package internal

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnoswap-labs/bitpat/internal/pattern"
	"github.com/gnoswap-labs/bitpat/internal/rewrite"
)

const decodeSource = `//go:build bitpat

package isa

//bitpat:scan
func Decode(op uint8) int {
	//bitpat:match
	switch op {
	case "01[r:xx]00":
		return int(r)
	}
	return -1
}
`

// createTempDir creates a temporary directory and returns its path.
// It also registers a cleanup function to remove the directory after the test.
func createTempDir(t testing.TB, prefix string) string {
	tempDir, err := os.MkdirTemp("", prefix)
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(tempDir) })
	return tempDir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestEngineRun(t *testing.T) {
	t.Parallel()
	dir := createTempDir(t, "engine_test")
	input := filepath.Join(dir, "decode.go")
	writeFile(t, input, decodeSource)

	engine, err := NewEngine(DefaultConfig(), nil)
	require.NoError(t, err)

	res, err := engine.Run(input)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "decode_bitpat.go"), res.Output)
	assert.Equal(t, 1, res.Switches)
	assert.False(t, res.Cached)

	out, err := os.ReadFile(res.Output)
	require.NoError(t, err)
	assert.True(t, rewrite.IsGenerated(out))
	assert.NotContains(t, string(out), "go:build")
	assert.Contains(t, string(out), "case 0b010000, 0b011000, 0b010100, 0b011100:")
	assert.Contains(t, string(out), "r := uint8(op>>2) & 0x3")
	assert.Contains(t, string(out), "//bitpat:handled")

	// the input is untouched
	src, err := os.ReadFile(input)
	require.NoError(t, err)
	assert.Equal(t, decodeSource, string(src))

	// outputs are never processed
	res, err = engine.Run(res.Output)
	require.NoError(t, err)
	assert.Empty(t, res.Output)
	assert.Zero(t, res.Switches)
}

func TestEngineInPlace(t *testing.T) {
	t.Parallel()
	dir := createTempDir(t, "engine_inplace")
	input := filepath.Join(dir, "decode.go")
	writeFile(t, input, decodeSource)

	cfg := DefaultConfig()
	cfg.InPlace = true
	engine, err := NewEngine(cfg, nil)
	require.NoError(t, err)

	res, err := engine.Run(input)
	require.NoError(t, err)
	assert.Equal(t, input, res.Output)

	out, err := os.ReadFile(input)
	require.NoError(t, err)
	assert.False(t, rewrite.IsGenerated(out))
	assert.Contains(t, string(out), "//go:build bitpat")
	assert.Contains(t, string(out), "//bitpat:handled")

	// a second run finds the switch handled
	res, err = engine.Run(input)
	require.NoError(t, err)
	assert.Zero(t, res.Switches)
}

func TestEngineDryRun(t *testing.T) {
	t.Parallel()
	dir := createTempDir(t, "engine_dryrun")
	input := filepath.Join(dir, "decode.go")
	writeFile(t, input, decodeSource)

	cfg := DefaultConfig()
	cfg.DryRun = true
	cfg.Base = pattern.Decimal
	engine, err := NewEngine(cfg, nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	engine.SetOutput(&buf)

	res, err := engine.Run(input)
	require.NoError(t, err)
	assert.Empty(t, res.Output)
	assert.Equal(t, 1, res.Switches)
	assert.Contains(t, buf.String(), "// "+filepath.Join(dir, "decode_bitpat.go"))
	assert.Contains(t, buf.String(), "case 16, 24, 20, 28:")

	_, err = os.Stat(filepath.Join(dir, "decode_bitpat.go"))
	assert.True(t, os.IsNotExist(err))
}

func TestEngineRunErrors(t *testing.T) {
	t.Parallel()
	dir := createTempDir(t, "engine_errors")
	engine, err := NewEngine(DefaultConfig(), nil)
	require.NoError(t, err)

	t.Run("missing file", func(t *testing.T) {
		_, err := engine.Run(filepath.Join(dir, "missing.go"))
		assert.ErrorContains(t, err, "failed to read file")
	})

	t.Run("syntax error", func(t *testing.T) {
		input := filepath.Join(dir, "broken.go")
		writeFile(t, input, "package")
		_, err := engine.Run(input)
		assert.ErrorContains(t, err, "error parsing file")
	})

	t.Run("bad pattern writes nothing", func(t *testing.T) {
		input := filepath.Join(dir, "bad.go")
		writeFile(t, input, "package p\n\n//bitpat:scan\nfunc f(v uint8) {\n\t//bitpat:match\n\tswitch v {\n\tcase \"1[\":\n\t}\n}\n")
		_, err := engine.Run(input)
		assert.ErrorIs(t, err, pattern.ErrUnclosedCapture)
		_, statErr := os.Stat(filepath.Join(dir, "bad_bitpat.go"))
		assert.True(t, os.IsNotExist(statErr))
	})
}

func TestEngineNothingToDo(t *testing.T) {
	t.Parallel()
	engine, err := NewEngine(DefaultConfig(), nil)
	require.NoError(t, err)

	out, n, err := engine.RunSource("plain.go", []byte("package p\n\nfunc f() {}\n"))
	require.NoError(t, err)
	assert.Nil(t, out)
	assert.Zero(t, n)
}

func TestEngineOldModuleUsesHex(t *testing.T) {
	t.Parallel()
	dir := createTempDir(t, "engine_gomod")
	writeFile(t, filepath.Join(dir, "go.mod"), "module example.com/old\n\ngo 1.12\n")
	input := filepath.Join(dir, "decode.go")
	writeFile(t, input, decodeSource)

	engine, err := NewEngine(DefaultConfig(), nil)
	require.NoError(t, err)

	out, _, err := engine.RunSource(input, []byte(decodeSource))
	require.NoError(t, err)
	assert.Contains(t, string(out), "case 0x10, 0x18, 0x14, 0x1c:")
}

func TestEngineCache(t *testing.T) {
	t.Parallel()
	dir := createTempDir(t, "engine_cache")
	input := filepath.Join(dir, "decode.go")
	writeFile(t, input, decodeSource)

	cfg := DefaultConfig()
	cfg.CacheDir = filepath.Join(dir, ".cache")
	engine, err := NewEngine(cfg, nil)
	require.NoError(t, err)

	first, err := engine.Run(input)
	require.NoError(t, err)
	assert.False(t, first.Cached)

	second, err := engine.Run(input)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Output, second.Output)
	assert.Equal(t, first.Switches, second.Switches)

	// removing the output invalidates the entry
	require.NoError(t, os.Remove(first.Output))
	third, err := engine.Run(input)
	require.NoError(t, err)
	assert.False(t, third.Cached)
	assert.FileExists(t, first.Output)
}

func TestReadSourceCode(t *testing.T) {
	t.Parallel()
	dir := createTempDir(t, "source")
	path := filepath.Join(dir, "a.go")
	writeFile(t, path, "package a\n\nvar x = 1\n")

	sc, err := ReadSourceCode(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"package a", "", "var x = 1", ""}, sc.Lines)

	_, err = ReadSourceCode(filepath.Join(dir, "missing.go"))
	assert.Error(t, err)
}

func mkdirAll(dir string) error {
	return os.MkdirAll(dir, 0o755)
}
