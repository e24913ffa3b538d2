// Package internal runs the bitpat pipeline over files.
//
// The Engine reads a Go file, compiles its //bitpat:match switches with the
// rewrite package and writes the result next to the input as
// <name>_bitpat.go, or over the input itself in place mode. Generated
// outputs drop the bitpat build constraint and carry the standard
// generated-code header, so the input (built only with -tags bitpat) and
// its output never end up in the same build.
//
// Usage:
//
//	engine, err := internal.NewEngine(internal.DefaultConfig(), logger)
//	if err != nil {
//	    // handle error
//	}
//
//	res, err := engine.Run("isa/decode.go")
//	if err != nil {
//	    // handle error
//	}
//	fmt.Printf("%s: %d switches -> %s\n", res.Input, res.Switches, res.Output)
//
// A Cache skips inputs whose content, output and configuration did not
// change since the last run, and StartWatching reruns the engine whenever a
// watched file is written.
package internal
