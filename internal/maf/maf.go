// Package maf computes minor allele frequencies from VCF records.
package maf

import (
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/andypohl/varona/internal/vcf"
)

// Result is a computed minor allele frequency.
// An undefined Result renders as an empty output cell, never as zero.
type Result struct {
	Value   float64
	Defined bool
	Method  Method
}

// FromSamples computes the frequency of every allele index called across
// the record's samples and returns the second-highest. A no-call allele
// (".") contributes to neither the numerator nor the denominator.
// Undefined when no sample has a callable genotype.
func FromSamples(rec *vcf.Record) Result {
	counts := make(map[int]int)
	total := 0
	for _, s := range rec.Samples {
		for _, allele := range s.GT {
			if allele < 0 {
				continue
			}
			counts[allele]++
			total++
		}
	}
	if total == 0 || len(rec.Alts) == 0 {
		return Result{Method: Samples}
	}

	// Frequencies per allele index, reference included as index zero.
	freqs := make([]float64, len(rec.Alts)+1)
	for i := range freqs {
		freqs[i] = float64(counts[i]) / float64(total)
	}
	return Result{Value: secondHighest(freqs), Defined: true, Method: Samples}
}

// FromFR derives the value from Platypus's FR INFO field. FR covers only
// the alternate alleles, so the reference allele frequency is
// reconstructed as 1 - sum(FR) before taking the second-highest. This
// strategy diverges from SAMPLES and BCFTOOLS on a small fraction of
// records, typically homozygous-alt calls carrying FR=0.5; the divergence
// mirrors what the FR field actually reports and is left intact.
// Undefined when FR is absent or malformed.
func FromFR(rec *vcf.Record) Result {
	fr, ok := rec.InfoFloats("FR")
	if !ok || len(fr) == 0 {
		return Result{Method: FR}
	}
	freqs := append(fr, 1-floats.Sum(fr))
	return Result{Value: secondHighest(freqs), Defined: true, Method: FR}
}

// FromTag reads the MAF INFO tag written by bcftools +fill-tags.
// Undefined when the tag is absent or malformed.
func FromTag(rec *vcf.Record) Result {
	vals, ok := rec.InfoFloats("MAF")
	if !ok || len(vals) == 0 {
		return Result{Method: Bcftools}
	}
	return Result{Value: vals[0], Defined: true, Method: Bcftools}
}

// secondHighest sorts a copy of freqs descending and returns the second
// entry. Callers guarantee len(freqs) >= 2.
func secondHighest(freqs []float64) float64 {
	sorted := append([]float64(nil), freqs...)
	sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))
	return sorted[1]
}
