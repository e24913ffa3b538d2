// Package bitpat rewrites Go switch statements over bit patterns into plain
// integer switches.
//
// A function marked //bitpat:scan may hold switches marked //bitpat:match
// whose cases are pattern strings:
//
//	//bitpat:scan
//	func decode(op uint8) {
//		//bitpat:match
//		switch op {
//		case "01[rd:xxx]xxx":
//			useRegister(rd)
//		}
//	}
//
// Each pattern becomes the list of values it stands for, and every capture
// used by the case body is bound at the top of the body.
package bitpat

import (
	"go.uber.org/zap"

	"github.com/gnoswap-labs/bitpat/internal"
	tt "github.com/gnoswap-labs/bitpat/internal/types"
)

type (
	Result = internal.Result
	Issue  = tt.Issue
)

// Engine is the part of *internal.Engine the processing helpers need.
type Engine interface {
	Run(filename string) (Result, error)
	RunSource(filename string, src []byte) ([]byte, int, error)
	IsOutput(filename string) bool
}

// New builds an engine from a configuration.
func New(config Config, logger *zap.Logger) (*internal.Engine, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	cfg, err := config.EngineConfig()
	if err != nil {
		return nil, err
	}
	return internal.NewEngine(cfg, logger)
}

// ProcessFile is the processor that rewrites a file.
func ProcessFile(engine Engine, path string) (Result, error) {
	return engine.Run(path)
}
