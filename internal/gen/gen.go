// Package gen generates Go decoder functions from a YAML table of bit
// patterns.
package gen

import (
	"fmt"
	"go/token"
	"io"
	"strings"

	"github.com/dave/jennifer/jen"
	"go.uber.org/zap"

	"github.com/gnoswap-labs/bitpat/internal/compiler"
	"github.com/gnoswap-labs/bitpat/internal/pattern"
)

const subject = "v"

// Options tune the generated code.
type Options struct {
	Base            pattern.Base
	MaxAlternatives int
	// Source is mentioned in the generated header when set.
	Source string
}

// Generator turns a Spec into a Go file.
type Generator struct {
	spec   *Spec
	opts   Options
	logger *zap.Logger
	file   *jen.File
}

func New(spec *Spec, opts Options, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{spec: spec, opts: opts, logger: logger}
}

// Generate builds the file: a <Name>Fields struct and a Match<Name> function
// per decoder.
func (g *Generator) Generate() (*jen.File, error) {
	g.file = jen.NewFile(g.spec.Package)
	if g.opts.Source != "" {
		g.file.HeaderComment(fmt.Sprintf("Code generated by bitpat from %s. DO NOT EDIT.", g.opts.Source))
	} else {
		g.file.HeaderComment("Code generated by bitpat. DO NOT EDIT.")
	}

	for _, d := range g.spec.Decoders {
		if err := g.decoder(d); err != nil {
			return nil, fmt.Errorf("decoder %s: %w", d.Name, err)
		}
	}
	return g.file, nil
}

// Render writes the formatted file to w.
func (g *Generator) Render(w io.Writer) error {
	f, err := g.Generate()
	if err != nil {
		return err
	}
	return f.Render(w)
}

func (g *Generator) Save(path string) error {
	f, err := g.Generate()
	if err != nil {
		return err
	}
	return f.Save(path)
}

func (g *Generator) decoder(d Decoder) error {
	arm, err := compiler.Compile(
		[]compiler.Position{{Pattern: d.Pattern, IsPattern: true}},
		compiler.Options{MaxAlternatives: g.opts.MaxAlternatives},
	)
	if err != nil {
		return err
	}

	compiled := arm.Positions[0]
	if bits := typeBits[g.spec.Type]; compiled.Pattern.Len() > bits {
		return fmt.Errorf("pattern has %d bits, %s holds %d", compiled.Pattern.Len(), g.spec.Type, bits)
	}

	name := upperFirst(d.Name)
	fieldsType := name + "Fields"

	var (
		fields []jen.Code
		values = jen.Dict{}
		owners = make(map[string]string)
	)
	for _, b := range arm.Effective() {
		if b.Capture.Name == "_" {
			continue
		}
		if b.Extraction.Width > 64 {
			return fmt.Errorf("capture %s is %d bits wide", b.Capture.Name, b.Capture.Range.Width())
		}
		field := fieldName(b.Capture.Name)
		if !token.IsIdentifier(field) {
			return fmt.Errorf("capture %q cannot be a field name", b.Capture.Name)
		}
		if other, ok := owners[field]; ok {
			return fmt.Errorf("captures %q and %q both become field %s", other, b.Capture.Name, field)
		}
		owners[field] = b.Capture.Name
		typ := b.Extraction.TypeName()
		fields = append(fields, jen.Id(field).Id(typ))
		values[jen.Id(field)] = extraction(b.Extraction)
	}

	cases := make([]jen.Code, 0, len(compiled.Values))
	for _, v := range compiled.Values {
		cases = append(cases, jen.Id(pattern.FormatValue(v, compiled.Pattern.Len(), g.opts.Base)))
	}

	g.logger.Debug("generating decoder",
		zap.String("name", name),
		zap.String("pattern", d.Pattern),
		zap.Int("alternatives", len(cases)),
		zap.Int("fields", len(fields)))

	g.file.Commentf("%s holds the fields of a %s match.", fieldsType, name)
	g.file.Type().Id(fieldsType).Struct(fields...)
	g.file.Line()

	doc := d.Doc
	if doc == "" {
		doc = fmt.Sprintf("reports whether %s matches %q and extracts its fields.", subject, d.Pattern)
	}
	g.file.Comment("Match" + name + " " + strings.TrimSuffix(doc, "\n"))
	g.file.Func().Id("Match"+name).
		Params(jen.Id(subject).Id(g.spec.Type)).
		Params(jen.Id(fieldsType), jen.Bool()).
		Block(
			jen.Switch(jen.Id(subject)).Block(
				jen.Case(cases...).Block(
					jen.Return(jen.Id(fieldsType).Values(values), jen.True()),
				),
			),
			jen.Return(jen.Id(fieldsType).Values(), jen.False()),
		)
	g.file.Line()
	return nil
}

// extraction renders uintW(v>>shift) & mask.
func extraction(e pattern.Extraction) jen.Code {
	x := jen.Id(subject)
	if e.Shift > 0 {
		x = x.Op(">>").Lit(e.Shift)
	}
	return jen.Id(e.TypeName()).Call(x).Op("&").Id(e.MaskLiteral())
}

// fieldName exports a capture name. Anonymous captures become Field<n>.
func fieldName(capture string) string {
	if rest, ok := strings.CutPrefix(capture, "_"); ok && rest != "" {
		return "Field" + rest
	}
	return upperFirst(capture)
}
