package bitpat

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	tt "github.com/gnoswap-labs/bitpat/internal/types"
)

func TestMain(m *testing.M) {
	ProgressOutput = io.Discard
	os.Exit(m.Run())
}

type mockEngine struct {
	mock.Mock
}

func (m *mockEngine) Run(filename string) (Result, error) {
	args := m.Called(filename)
	return args.Get(0).(Result), args.Error(1)
}

func (m *mockEngine) RunSource(filename string, src []byte) ([]byte, int, error) {
	args := m.Called(filename, src)
	return args.Get(0).([]byte), args.Int(1), args.Error(2)
}

func (m *mockEngine) IsOutput(filename string) bool {
	return strings.HasSuffix(filename, "_bitpat.go")
}

func createFiles(t *testing.T, dir string, names ...string) []string {
	t.Helper()
	var paths []string
	for _, name := range names {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("package p\n"), 0o644))
		paths = append(paths, path)
	}
	return paths
}

func TestProcessPathWithMock(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	paths := createFiles(t, dir, "a.go", "b.go", "a_bitpat.go", "sub/c.go")

	engine := new(mockEngine)
	engine.On("Run", paths[0]).Return(Result{Input: paths[0], Switches: 2}, nil)
	engine.On("Run", paths[1]).Return(Result{}, errors.New("boom"))
	engine.On("Run", paths[3]).Return(Result{Input: paths[3], Switches: 1}, nil)

	results, err := ProcessPath(context.Background(), nil, engine, dir, ProcessFile)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")

	require.Len(t, results, 2)
	assert.Equal(t, paths[0], results[0].Input)
	assert.Equal(t, paths[3], results[1].Input)

	engine.AssertExpectations(t)
	engine.AssertNotCalled(t, "Run", paths[2])
}

func TestProcessPathSingleFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	paths := createFiles(t, dir, "a.go")

	engine := new(mockEngine)
	engine.On("Run", paths[0]).Return(Result{Input: paths[0], Switches: 3}, nil)

	results, err := ProcessPath(context.Background(), nil, engine, paths[0], ProcessFile)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 3, results[0].Switches)
	engine.AssertExpectations(t)
}

func TestProcessPathMissing(t *testing.T) {
	t.Parallel()
	_, err := ProcessPath(context.Background(), nil, new(mockEngine), filepath.Join(t.TempDir(), "nope"), ProcessFile)
	assert.ErrorContains(t, err, "error accessing")
}

func TestProcessPathContextCancellation(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	createFiles(t, dir, "a.go", "b.go")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	engine := new(mockEngine)
	results, err := ProcessPath(ctx, nil, engine, dir, ProcessFile)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotNil(t, results)
	assert.Empty(t, results)
	engine.AssertNotCalled(t, "Run", mock.Anything)
}

func TestProcessFiles(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	paths := createFiles(t, dir, "a.go", "b.go")

	engine := new(mockEngine)
	engine.On("Run", paths[0]).Return(Result{Input: paths[0]}, nil)
	engine.On("Run", paths[1]).Return(Result{Input: paths[1]}, nil)

	results, err := ProcessFiles(context.Background(), nil, engine, paths, ProcessFile)
	require.NoError(t, err)
	assert.Len(t, results, 2)

	_, err = ProcessFiles(context.Background(), nil, engine, []string{filepath.Join(dir, "missing.go")}, ProcessFile)
	assert.Error(t, err)
}

const decodeSource = `//go:build bitpat

package isa

//bitpat:scan
func Decode(op uint16) int {
	//bitpat:match
	switch op {
	case "0001 [rd:xxx] 1010 1010 1":
		return int(rd)
	}
	return -1
}
`

func TestEndToEnd(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	input := filepath.Join(dir, "decode.go")
	require.NoError(t, os.WriteFile(input, []byte(decodeSource), 0o644))

	engine, err := New(DefaultConfig(), nil)
	require.NoError(t, err)

	results, err := ProcessPath(context.Background(), nil, engine, dir, ProcessFile)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 1, results[0].Switches)

	out, err := os.ReadFile(filepath.Join(dir, "decode_bitpat.go"))
	require.NoError(t, err)
	assert.Contains(t, string(out), "rd := uint8(op>>9) & 0x7")
	assert.Contains(t, string(out), "0b0001000101010101")

	// the output is skipped on the next run
	results, err = ProcessPath(context.Background(), nil, engine, dir, ProcessFile)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, input, results[0].Input)
}

func TestCheckFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	input := filepath.Join(dir, "bad.go")
	src := strings.Replace(decodeSource, "[rd:xxx]", "[rd:xx2]", 1)
	require.NoError(t, os.WriteFile(input, []byte(src), 0o644))

	issues, err := CheckFile(nil, input)
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, tt.SeverityError, issues[0].Severity)
	assert.Equal(t, input, issues[0].Filename)

	_, err = CheckFile(nil, filepath.Join(dir, "missing.go"))
	assert.Error(t, err)
}
