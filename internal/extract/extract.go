// Package extract maps VCF records to the locally-derived output rows.
package extract

import (
	"github.com/andypohl/varona/internal/maf"
	"github.com/andypohl/varona/internal/vcf"
)

// LocalRow is one output row of locally-derived statistics per VCF record.
// Multi-allelic records produce a single row with the alternate alleles
// comma-joined in Alt, matching how the VEP API reports them.
type LocalRow struct {
	Chrom           string
	Pos             int64
	Ref             string
	Alt             string
	SequenceDepth   OptInt
	MaxVariantReads OptInt
	VariantReadPct  OptFloat
	Maf             maf.Result
}

// OptInt is an integer cell that may be left empty in the output.
type OptInt struct {
	Value   int
	Defined bool
}

// OptFloat is a float cell that may be left empty in the output.
type OptFloat struct {
	Value   float64
	Defined bool
}

// RowFunc maps one VCF record, plus the MAF calculator in effect, to a
// LocalRow. It is the extraction extension point: substituting a different
// RowFunc changes the extracted columns without touching the rest of the
// pipeline, as long as the key fields stay populated.
type RowFunc func(rec *vcf.Record, calc maf.Calculator) LocalRow

// PlatypusRow extracts the columns varona reports for Platypus VCFs:
// coordinates and alleles, sequence depth from TC, the strongest alternate
// support from TR, their ratio as a percentage, and the MAF. TR lists one
// count per alternate allele, so the maximum is taken. Absent or malformed
// TC/TR leave the affected cells undefined rather than zero.
func PlatypusRow(rec *vcf.Record, calc maf.Calculator) LocalRow {
	row := LocalRow{
		Chrom: rec.Chrom,
		Pos:   rec.Pos,
		Ref:   rec.Ref,
		Alt:   rec.Alt(),
	}

	if tc, ok := rec.InfoInt("TC"); ok {
		row.SequenceDepth = OptInt{Value: tc, Defined: true}
	}
	if tr, ok := rec.InfoInts("TR"); ok && len(tr) > 0 {
		max := tr[0]
		for _, v := range tr[1:] {
			if v > max {
				max = v
			}
		}
		row.MaxVariantReads = OptInt{Value: max, Defined: true}
	}
	if row.SequenceDepth.Defined && row.MaxVariantReads.Defined && row.SequenceDepth.Value > 0 {
		pct := float64(row.MaxVariantReads.Value) / float64(row.SequenceDepth.Value) * 100
		row.VariantReadPct = OptFloat{Value: pct, Defined: true}
	}
	if calc != nil {
		row.Maf = calc(rec)
	}
	return row
}

// Collect drains a variant source, returning the extracted rows and the
// records themselves in input order. The records are returned so the
// remote annotation step can reuse the same pass over the input.
func Collect(src vcf.VariantSource, calc maf.Calculator, fn RowFunc) ([]LocalRow, []*vcf.Record, error) {
	if fn == nil {
		fn = PlatypusRow
	}

	var rows []LocalRow
	var recs []*vcf.Record
	for {
		rec, err := src.Next()
		if err != nil {
			return nil, nil, err
		}
		if rec == nil {
			return rows, recs, nil
		}
		rows = append(rows, fn(rec, calc))
		recs = append(recs, rec)
	}
}
