// Package vcf provides VCF record reading for the annotation pipeline.
package vcf

import (
	"fmt"
	"io"

	"github.com/brentp/vcfgo"
	"github.com/brentp/xopen"
)

// Parser reads Records from a VCF stream.
// Line decoding, INFO typing and genotype parsing are delegated to vcfgo;
// the parser layers the fatal-versus-lenient error policy on top: a
// structurally broken data line ends the read with a ParseError, while
// genotype columns that fail to parse are kept as missing calls.
type Parser struct {
	in *xopen.Reader
	vr *vcfgo.Reader
}

// NewParser creates a new VCF parser for the given file.
// Supports plain VCF, gzipped VCF (.vcf.gz) and "-" for stdin.
func NewParser(path string) (*Parser, error) {
	in, err := xopen.Ropen(path)
	if err != nil {
		return nil, fmt.Errorf("open vcf file: %w", err)
	}

	p, err := NewParserFromReader(in)
	if err != nil {
		in.Close()
		return nil, err
	}
	p.in = in
	return p, nil
}

// NewParserFromReader creates a parser from an already-open stream.
func NewParserFromReader(r io.Reader) (*Parser, error) {
	vr, err := vcfgo.NewReader(r, true)
	if err != nil {
		return nil, fmt.Errorf("read vcf header: %w", err)
	}
	return &Parser{vr: vr}, nil
}

// Next reads the next record from the VCF file.
// Returns nil, nil when there are no more records.
func (p *Parser) Next() (*Record, error) {
	v := p.vr.Read()
	if err := p.vr.Error(); err != nil {
		return nil, &ParseError{Line: int(p.vr.LineNumber), Message: err.Error()}
	}
	if v == nil {
		return nil, nil
	}

	if len(p.vr.Header.SampleNames) > 0 {
		// Unparseable genotypes stay missing rather than failing the run.
		_ = v.Header.ParseSamples(v)
	}

	return p.convert(v), nil
}

// convert copies a vcfgo variant into a Record that does not retain any
// reference to the reader.
func (p *Parser) convert(v *vcfgo.Variant) *Record {
	rec := &Record{
		Chrom:  v.Chromosome,
		Pos:    int64(v.Pos),
		ID:     v.Id(),
		Ref:    v.Ref(),
		Alts:   append([]string(nil), v.Alt()...),
		Qual:   float64(v.Quality),
		Filter: v.Filter,
		Info:   infoMap(v),
		Line:   int(p.vr.LineNumber),
	}

	names := p.vr.Header.SampleNames
	for i, s := range v.Samples {
		sg := SampleGenotype{}
		if i < len(names) {
			sg.Name = names[i]
		}
		if s != nil {
			sg.GT = append([]int(nil), s.GT...)
		}
		rec.Samples = append(rec.Samples, sg)
	}

	return rec
}

// infoMap copies the INFO column into a plain map. Values that fail to
// decode are dropped; downstream readers treat the key as absent.
func infoMap(v *vcfgo.Variant) map[string]interface{} {
	info := v.Info()
	keys := info.Keys()
	m := make(map[string]interface{}, len(keys))
	for _, k := range keys {
		val, err := info.Get(k)
		if err != nil || val == nil {
			continue
		}
		m[k] = val
	}
	return m
}

// SampleNames returns sample names from the #CHROM header line.
// Returns nil if no sample columns are present.
func (p *Parser) SampleNames() []string {
	return p.vr.Header.SampleNames
}

// LineNumber returns the line number most recently read.
func (p *Parser) LineNumber() int {
	return int(p.vr.LineNumber)
}

// Close closes the parser and underlying file.
func (p *Parser) Close() error {
	if p.in != nil {
		return p.in.Close()
	}
	return nil
}

// ParseError represents an error during VCF parsing with line context.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("vcf parse error at line %d: %s", e.Line, e.Message)
}
