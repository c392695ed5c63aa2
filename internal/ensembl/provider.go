// Package ensembl queries the Ensembl VEP REST API and normalizes its
// responses into flat annotation rows.
package ensembl

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/andypohl/varona/internal/vcf"
)

// RowProvider produces annotation rows for a set of VCF records. The API
// client, the pre-fetched file reader and the skip path all satisfy it,
// so the pipeline picks one at construction time and treats them alike.
// An error from Rows is fatal; per-chunk API failures are recovered
// inside the client and never surface here.
type RowProvider interface {
	Rows(ctx context.Context, recs []*vcf.Record) ([]Row, error)
}

// NoneProvider skips remote annotation entirely, emitting one placeholder
// row per record so the merged output keeps its shape.
type NoneProvider struct{}

// Rows implements RowProvider without any I/O.
func (NoneProvider) Rows(_ context.Context, recs []*vcf.Record) ([]Row, error) {
	return placeholders(recs), nil
}

// RowStore is the persistence interface the caching provider needs.
type RowStore interface {
	// Lookup returns the cached rows for a variant key, or an empty
	// slice when the key has never been cached.
	Lookup(assembly Assembly, chrom string, pos int64, ref, alt string) ([]Row, error)
	// Put stores freshly fetched rows.
	Put(assembly Assembly, rows []Row) error
}

// CachedProvider serves rows from a persistent store and falls back to
// another provider for keys not yet cached. Placeholder rows produced by
// a degraded remote service are never written back, so a failed run does
// not poison later ones.
type CachedProvider struct {
	store    RowStore
	fallback RowProvider
	assembly Assembly
	logger   *zap.Logger
}

// NewCachedProvider wraps fallback with the store.
func NewCachedProvider(store RowStore, fallback RowProvider, assembly Assembly) *CachedProvider {
	return &CachedProvider{
		store:    store,
		fallback: fallback,
		assembly: assembly,
		logger:   zap.NewNop(),
	}
}

// SetLogger sets the logger for cache statistics.
func (p *CachedProvider) SetLogger(l *zap.Logger) {
	p.logger = l
}

// Rows implements RowProvider. Output order follows the input records:
// cached rows and freshly fetched rows are interleaved back into record
// order before returning. Each distinct variant key contributes its rows
// once, even when the input repeats it.
func (p *CachedProvider) Rows(ctx context.Context, recs []*vcf.Record) ([]Row, error) {
	cached := make(map[rowKey][]Row, len(recs))
	missSeen := make(map[rowKey]bool)
	var misses []*vcf.Record
	for _, rec := range recs {
		key := recKey(rec)
		if _, ok := cached[key]; ok {
			continue
		}
		if missSeen[key] {
			continue
		}
		rows, err := p.store.Lookup(p.assembly, key.chrom, key.pos, key.ref, key.alt)
		if err != nil {
			return nil, fmt.Errorf("vep cache lookup: %w", err)
		}
		if len(rows) > 0 {
			cached[key] = rows
		} else {
			missSeen[key] = true
			misses = append(misses, rec)
		}
	}

	p.logger.Info("vep cache",
		zap.Int("hits", len(cached)),
		zap.Int("misses", len(misses)))

	fetched := make(map[rowKey][]Row, len(misses))
	if len(misses) > 0 {
		rows, err := p.fallback.Rows(ctx, misses)
		if err != nil {
			return nil, err
		}
		var fresh []Row
		for _, row := range rows {
			fetched[row.key()] = append(fetched[row.key()], row)
			if !row.IsPlaceholder() {
				fresh = append(fresh, row)
			}
		}
		if len(fresh) > 0 {
			if err := p.store.Put(p.assembly, fresh); err != nil {
				return nil, fmt.Errorf("vep cache write: %w", err)
			}
		}
	}

	var out []Row
	seen := make(map[rowKey]bool, len(recs))
	for _, rec := range recs {
		key := recKey(rec)
		if seen[key] {
			continue
		}
		seen[key] = true
		if rows, ok := cached[key]; ok {
			out = append(out, rows...)
			continue
		}
		out = append(out, fetched[key]...)
	}
	return out, nil
}
