// Package output renders the merged annotation table.
package output

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"

	"github.com/andypohl/varona/internal/extract"
	"github.com/andypohl/varona/internal/maf"
	"github.com/andypohl/varona/internal/merge"
)

// Columns is the fixed column order of the output table.
var Columns = []string{
	"chrom",
	"pos",
	"ref",
	"alt",
	"sequence_depth",
	"max_variant_reads",
	"variant_read_pct",
	"maf",
	"gene_name",
	"gene_id",
	"type",
	"effect",
	"transcript_id",
}

// Records renders merged rows as string records, header first. Undefined
// numeric cells become empty strings, never zero.
func Records(rows []merge.OutputRow) [][]string {
	records := make([][]string, 0, len(rows)+1)
	records = append(records, Columns)
	for _, row := range rows {
		records = append(records, []string{
			row.Chrom,
			strconv.FormatInt(row.Pos, 10),
			row.Ref,
			row.Alt,
			optInt(row.SequenceDepth),
			optInt(row.MaxVariantReads),
			optFloat(row.VariantReadPct),
			mafCell(row.Maf),
			row.GeneName,
			row.GeneID,
			row.VariantClass,
			row.Effect,
			row.TranscriptID,
		})
	}
	return records
}

// Frame loads the rendered records into a dataframe. Type detection is
// off so every column stays a string and empty cells survive untouched.
func Frame(rows []merge.OutputRow) (dataframe.DataFrame, error) {
	df := dataframe.LoadRecords(Records(rows), dataframe.DetectTypes(false))
	if df.Err != nil {
		return df, fmt.Errorf("build output table: %w", df.Err)
	}
	return df, nil
}

// WriteCSV writes the output table to w, header included.
func WriteCSV(w io.Writer, rows []merge.OutputRow) error {
	if len(rows) == 0 {
		// a dataframe needs at least one row, so write the bare header
		_, err := io.WriteString(w, strings.Join(Columns, ",")+"\n")
		return err
	}
	df, err := Frame(rows)
	if err != nil {
		return err
	}
	if err := df.WriteCSV(w); err != nil {
		return fmt.Errorf("write output table: %w", err)
	}
	return nil
}

// WriteFile writes the output table to path, or to stdout when path is
// "-" or empty.
func WriteFile(path string, rows []merge.OutputRow) error {
	if path == "" || path == "-" {
		return WriteCSV(os.Stdout, rows)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	if err := WriteCSV(f, rows); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func optInt(v extract.OptInt) string {
	if !v.Defined {
		return ""
	}
	return strconv.Itoa(v.Value)
}

func optFloat(v extract.OptFloat) string {
	if !v.Defined {
		return ""
	}
	return formatFloat(v.Value)
}

func mafCell(r maf.Result) string {
	if !r.Defined {
		return ""
	}
	return formatFloat(r.Value)
}

// formatFloat renders integral values with a trailing .0 so float columns
// read as floats.
func formatFloat(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}
