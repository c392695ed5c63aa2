// Package ensembl queries the Ensembl VEP REST API and normalizes its
// responses into flat annotation rows.
package ensembl

import (
	"strings"

	"github.com/andypohl/varona/internal/vcf"
)

// Row is one flattened annotation row: the variant key fields plus the
// consequence annotation for a single transcript. A placeholder Row has
// the key fields populated and every annotation field empty.
type Row struct {
	Chrom        string
	Pos          int64
	Ref          string
	Alt          string
	GeneName     string
	GeneID       string
	VariantClass string
	Effect       string
	TranscriptID string
}

// IsPlaceholder reports whether the row carries no annotation.
func (r Row) IsPlaceholder() bool {
	return r.GeneName == "" && r.GeneID == "" && r.VariantClass == "" &&
		r.Effect == "" && r.TranscriptID == ""
}

// Placeholder returns a Row carrying only the record's key fields.
func Placeholder(rec *vcf.Record) Row {
	return Row{Chrom: rec.Chrom, Pos: rec.Pos, Ref: rec.Ref, Alt: rec.Alt()}
}

// responseItem is one entry of a VEP response, shared between the REST
// API's JSON array and the JSON-lines files the VEP command-line tool
// writes. The CLI shape labels the gene in "nearest" instead of a
// per-consequence gene_symbol.
type responseItem struct {
	Input                  string                  `json:"input"`
	SeqRegionName          string                  `json:"seq_region_name"`
	Start                  int64                   `json:"start"`
	AlleleString           string                  `json:"allele_string"`
	VariantClass           string                  `json:"variant_class"`
	MostSevereConsequence  string                  `json:"most_severe_consequence"`
	TranscriptConsequences []transcriptConsequence `json:"transcript_consequences"`
	Nearest                []string                `json:"nearest"`
}

type transcriptConsequence struct {
	GeneSymbol   string `json:"gene_symbol"`
	GeneID       string `json:"gene_id"`
	TranscriptID string `json:"transcript_id"`
}

// rowKey identifies a variant for cache lookups and response grouping.
type rowKey struct {
	chrom string
	pos   int64
	ref   string
	alt   string
}

func (r Row) key() rowKey {
	return rowKey{chrom: r.Chrom, pos: r.Pos, ref: r.Ref, alt: r.Alt}
}

func recKey(rec *vcf.Record) rowKey {
	return rowKey{chrom: rec.Chrom, pos: rec.Pos, ref: rec.Ref, alt: rec.Alt()}
}

// recordKeyRow seeds a Row with the key fields of the submitted record,
// so joins downstream always see the coordinates as written in the VCF
// rather than the API's normalized echo of them.
func recordKeyRow(rec *vcf.Record) Row {
	return Row{Chrom: rec.Chrom, Pos: rec.Pos, Ref: rec.Ref, Alt: rec.Alt()}
}

// itemKeyRow seeds a Row with the coordinates reported by the response
// item itself ("allele_string" is "REF/ALT1/ALT2"). Used when replaying
// a pre-fetched file, where no submitted record is available.
func itemKeyRow(item responseItem) Row {
	row := Row{Chrom: item.SeqRegionName, Pos: item.Start}
	alleles := strings.Split(item.AlleleString, "/")
	if len(alleles) > 0 {
		row.Ref = alleles[0]
	}
	if len(alleles) > 1 {
		row.Alt = strings.Join(alleles[1:], ",")
	}
	return row
}

// flatten attaches one response item's annotation to the key row, one Row
// per transcript consequence. An item with no transcript consequences
// still yields a single Row so the variant class and effect survive.
func flatten(key Row, item responseItem) []Row {
	key.VariantClass = item.VariantClass
	key.Effect = item.MostSevereConsequence
	if len(item.Nearest) > 0 {
		key.GeneName = item.Nearest[0]
	}

	if len(item.TranscriptConsequences) == 0 {
		return []Row{key}
	}

	rows := make([]Row, 0, len(item.TranscriptConsequences))
	for _, tc := range item.TranscriptConsequences {
		row := key
		if tc.GeneSymbol != "" {
			row.GeneName = tc.GeneSymbol
		}
		row.GeneID = tc.GeneID
		row.TranscriptID = tc.TranscriptID
		rows = append(rows, row)
	}
	return rows
}
