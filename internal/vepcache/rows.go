package vepcache

import (
	"context"
	"database/sql/driver"
	"fmt"

	goduckdb "github.com/marcboeker/go-duckdb"

	"github.com/andypohl/varona/internal/ensembl"
)

// rowKey is the composite key for deduplicating rows before writing.
type rowKey struct {
	chrom, ref, alt, transcriptID string
	pos                           int64
}

// Put batch-inserts annotation rows using the Appender API. Duplicate
// (chrom, pos, ref, alt, transcript_id) entries are deduplicated before
// writing.
func (s *Store) Put(assembly ensembl.Assembly, rows []ensembl.Row) error {
	if len(rows) == 0 {
		return nil
	}

	seen := make(map[rowKey]bool, len(rows))
	deduped := make([]ensembl.Row, 0, len(rows))
	for _, r := range rows {
		k := rowKey{r.Chrom, r.Ref, r.Alt, r.TranscriptID, r.Pos}
		if !seen[k] {
			seen[k] = true
			deduped = append(deduped, r)
		}
	}

	conn, err := s.db.Conn(context.Background())
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", "vep_rows")
		return err
	}); err != nil {
		return fmt.Errorf("create appender: %w", err)
	}
	defer appender.Close()

	for _, r := range deduped {
		if err := appender.AppendRow(
			string(assembly), r.Chrom, r.Pos, r.Ref, r.Alt,
			r.GeneName, r.GeneID, r.VariantClass, r.Effect, r.TranscriptID,
		); err != nil {
			return fmt.Errorf("append vep row: %w", err)
		}
	}

	return appender.Flush()
}

// Lookup returns previously cached annotation rows for a variant, or an
// empty slice when the variant has never been fetched.
func (s *Store) Lookup(assembly ensembl.Assembly, chrom string, pos int64, ref, alt string) ([]ensembl.Row, error) {
	rows, err := s.db.Query(`SELECT
		gene_name, gene_id, variant_class, effect, transcript_id
		FROM vep_rows
		WHERE assembly=? AND chrom=? AND pos=? AND ref=? AND alt=?
		ORDER BY transcript_id`,
		string(assembly), chrom, pos, ref, alt)
	if err != nil {
		return nil, fmt.Errorf("query vep rows: %w", err)
	}
	defer rows.Close()

	var out []ensembl.Row
	for rows.Next() {
		row := ensembl.Row{Chrom: chrom, Pos: pos, Ref: ref, Alt: alt}
		if err := rows.Scan(
			&row.GeneName, &row.GeneID, &row.VariantClass, &row.Effect, &row.TranscriptID,
		); err != nil {
			return nil, fmt.Errorf("scan vep row: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate vep rows: %w", err)
	}
	return out, nil
}

// Clear removes all cached rows.
func (s *Store) Clear() error {
	_, err := s.db.Exec("DELETE FROM vep_rows")
	return err
}

// Count reports how many rows the cache holds.
func (s *Store) Count() (int, error) {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM vep_rows").Scan(&n); err != nil {
		return 0, fmt.Errorf("count vep rows: %w", err)
	}
	return n, nil
}
