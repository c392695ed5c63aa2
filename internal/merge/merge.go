// Package merge joins locally-extracted variant rows with remote VEP
// annotation rows into the final output table.
package merge

import (
	"fmt"

	"github.com/andypohl/varona/internal/ensembl"
	"github.com/andypohl/varona/internal/extract"
	"github.com/andypohl/varona/internal/maf"
)

// OutputRow is one line of the final table: the locally-derived fields of
// a variant joined with one remote annotation row. Rows are built once and
// never mutated afterwards.
type OutputRow struct {
	Chrom           string
	Pos             int64
	Ref             string
	Alt             string
	SequenceDepth   extract.OptInt
	MaxVariantReads extract.OptInt
	VariantReadPct  extract.OptFloat
	Maf             maf.Result
	GeneName        string
	GeneID          string
	VariantClass    string
	Effect          string
	TranscriptID    string
}

// SchemaError reports input rows that cannot participate in the join
// because a key column is absent. It signals an internal contract
// violation, not bad user input.
type SchemaError struct {
	Message string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("merge schema error: %s", e.Message)
}

type key struct {
	chrom string
	pos   int64
	ref   string
	alt   string
}

// Merge left-joins local rows with annotation rows on (chrom, pos, ref,
// alt). Every local row survives: once per matching annotation row, or
// once with empty annotation fields when nothing matches. Annotation rows
// without a local partner are dropped.
func Merge(locals []extract.LocalRow, veps []ensembl.Row) ([]OutputRow, error) {
	for i, local := range locals {
		if local.Chrom == "" || local.Pos <= 0 || local.Ref == "" || local.Alt == "" {
			return nil, &SchemaError{
				Message: fmt.Sprintf("local row %d has an incomplete key (%q, %d, %q, %q)",
					i, local.Chrom, local.Pos, local.Ref, local.Alt),
			}
		}
	}
	for i, vep := range veps {
		if vep.Chrom == "" || vep.Pos <= 0 || vep.Ref == "" || vep.Alt == "" {
			return nil, &SchemaError{
				Message: fmt.Sprintf("vep row %d has an incomplete key (%q, %d, %q, %q)",
					i, vep.Chrom, vep.Pos, vep.Ref, vep.Alt),
			}
		}
	}

	byKey := make(map[key][]ensembl.Row, len(veps))
	for _, vep := range veps {
		k := key{chrom: vep.Chrom, pos: vep.Pos, ref: vep.Ref, alt: vep.Alt}
		byKey[k] = append(byKey[k], vep)
	}

	out := make([]OutputRow, 0, len(locals))
	for _, local := range locals {
		k := key{chrom: local.Chrom, pos: local.Pos, ref: local.Ref, alt: local.Alt}
		matches := byKey[k]
		if len(matches) == 0 {
			out = append(out, joinRows(local, ensembl.Row{}))
			continue
		}
		for _, match := range matches {
			out = append(out, joinRows(local, match))
		}
	}
	return out, nil
}

func joinRows(local extract.LocalRow, vep ensembl.Row) OutputRow {
	return OutputRow{
		Chrom:           local.Chrom,
		Pos:             local.Pos,
		Ref:             local.Ref,
		Alt:             local.Alt,
		SequenceDepth:   local.SequenceDepth,
		MaxVariantReads: local.MaxVariantReads,
		VariantReadPct:  local.VariantReadPct,
		Maf:             local.Maf,
		GeneName:        vep.GeneName,
		GeneID:          vep.GeneID,
		VariantClass:    vep.VariantClass,
		Effect:          vep.Effect,
		TranscriptID:    vep.TranscriptID,
	}
}
