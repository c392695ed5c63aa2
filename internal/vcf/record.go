// Package vcf provides VCF record reading for the annotation pipeline.
package vcf

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Record represents a single VCF data line.
// Multi-allelic lines stay as one Record carrying all alternate alleles.
type Record struct {
	Chrom   string                 // Chromosome name (e.g., "12", "chr12")
	Pos     int64                  // 1-based genomic position
	ID      string                 // Variant identifier (e.g., rs ID)
	Ref     string                 // Reference allele
	Alts    []string               // Alternate alleles, at least one
	Qual    float64                // Quality score
	Filter  string                 // Filter status (PASS or filter name)
	Info    map[string]interface{} // INFO field values as decoded by the reader
	Samples []SampleGenotype       // One entry per sample column
	Line    int                    // Line number in the source file
}

// SampleGenotype is one sample's parsed genotype call.
// Allele index -1 marks a missing call (".").
type SampleGenotype struct {
	Name string
	GT   []int
}

// Alt returns the comma-joined alternate allele string as written in the VCF.
func (r *Record) Alt() string {
	return strings.Join(r.Alts, ",")
}

// Region renders the record in the whitespace-separated form the Ensembl VEP
// region endpoint accepts. ID, QUAL, FILTER and INFO are masked with ".".
func (r *Record) Region() string {
	return fmt.Sprintf("%s %d . %s %s . . .", r.Chrom, r.Pos, r.Ref, r.Alt())
}

// InfoFloats reads a numeric INFO field as a float slice.
// ok is false when the field is absent, a flag, or any element cannot be
// read as a number.
func (r *Record) InfoFloats(key string) ([]float64, bool) {
	raw, present := r.Info[key]
	if !present {
		return nil, false
	}
	return coerceFloats(raw)
}

// InfoInts reads a numeric INFO field as an integer slice.
// ok is false when the field is absent or holds non-integral values.
func (r *Record) InfoInts(key string) ([]int, bool) {
	vals, ok := r.InfoFloats(key)
	if !ok {
		return nil, false
	}
	out := make([]int, len(vals))
	for i, v := range vals {
		if v != math.Trunc(v) {
			return nil, false
		}
		out[i] = int(v)
	}
	return out, true
}

// InfoInt reads the first value of an integer INFO field.
func (r *Record) InfoInt(key string) (int, bool) {
	vals, ok := r.InfoInts(key)
	if !ok || len(vals) == 0 {
		return 0, false
	}
	return vals[0], true
}

// coerceFloats converts the dynamic INFO value types produced by vcfgo
// (and raw strings from hand-built records) into a float slice.
func coerceFloats(raw interface{}) ([]float64, bool) {
	switch v := raw.(type) {
	case float64:
		return []float64{v}, true
	case float32:
		return []float64{float64(v)}, true
	case int:
		return []float64{float64(v)}, true
	case int64:
		return []float64{float64(v)}, true
	case []float64:
		out := make([]float64, len(v))
		copy(out, v)
		return out, true
	case []float32:
		out := make([]float64, len(v))
		for i, f := range v {
			out[i] = float64(f)
		}
		return out, true
	case []int:
		out := make([]float64, len(v))
		for i, n := range v {
			out[i] = float64(n)
		}
		return out, true
	case []interface{}:
		out := make([]float64, 0, len(v))
		for _, elem := range v {
			fs, ok := coerceFloats(elem)
			if !ok || len(fs) != 1 {
				return nil, false
			}
			out = append(out, fs[0])
		}
		return out, true
	case string:
		return parseFloatList(v)
	}
	return nil, false
}

// parseFloatList parses a comma-separated numeric INFO value.
func parseFloatList(s string) ([]float64, bool) {
	if s == "" || s == "." {
		return nil, false
	}
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, false
		}
		out = append(out, f)
	}
	return out, true
}
