// Package pipeline wires the varona stages together: parse the VCF,
// extract local statistics, annotate remotely, merge, write the table.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/andypohl/varona/internal/bcftools"
	"github.com/andypohl/varona/internal/ensembl"
	"github.com/andypohl/varona/internal/extract"
	"github.com/andypohl/varona/internal/maf"
	"github.com/andypohl/varona/internal/merge"
	"github.com/andypohl/varona/internal/output"
	"github.com/andypohl/varona/internal/vcf"
	"github.com/andypohl/varona/internal/vepcache"
)

// Options configures one annotation run.
type Options struct {
	Input     string           // VCF path, "-" for stdin
	Output    string           // CSV path, "-" or empty for stdout
	Assembly  ensembl.Assembly // defaults to GRCh38
	MafMethod maf.Method
	ChunkSize int             // variants per VEP request, 0 for the default
	Retries   int             // extra attempts after a 429, 0 for the default
	Timeout   time.Duration   // per-request timeout, 0 for the default
	NoVep     bool            // skip remote annotation entirely
	VepJSON   string          // read annotations from this file instead of the API
	CachePath string          // DuckDB cache for fetched annotations, empty disables
	VepURL    string          // API base URL override
	RowFunc   extract.RowFunc // nil means the standard Platypus columns
	Logger    *zap.Logger
}

// Run executes one annotation run. Fatal conditions such as an unreadable
// input or an unsatisfiable MAF method come back as errors; per-chunk
// annotation failures are recovered inside the VEP client and leave empty
// annotation cells instead.
func Run(ctx context.Context, opts Options) error {
	start := time.Now()
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Assembly == "" {
		opts.Assembly = ensembl.GRCh38
	}

	calc, err := maf.ForMethod(opts.MafMethod)
	if err != nil {
		return err
	}

	input := opts.Input
	if opts.MafMethod == maf.Bcftools {
		filled, cleanup, err := bcftools.AnnotatedCopy(ctx, input)
		if err != nil {
			return fmt.Errorf("bcftools preprocessing: %w", err)
		}
		defer cleanup()
		input = filled
		logger.Info("filled MAF tag with bcftools", zap.String("input", opts.Input))
	}

	parser, err := vcf.NewParser(input)
	if err != nil {
		return fmt.Errorf("open %s: %w", opts.Input, err)
	}
	defer parser.Close()

	locals, recs, err := extract.Collect(parser, calc, opts.RowFunc)
	if err != nil {
		return err
	}
	logger.Info("extracted local rows",
		zap.Int("variants", len(recs)),
		zap.String("maf_method", opts.MafMethod.String()))

	provider, closeProvider, err := newProvider(opts, logger)
	if err != nil {
		return err
	}
	defer closeProvider()

	veps, err := provider.Rows(ctx, recs)
	if err != nil {
		return err
	}

	rows, err := merge.Merge(locals, veps)
	if err != nil {
		return err
	}

	if err := output.WriteFile(opts.Output, rows); err != nil {
		return err
	}
	logger.Info("wrote annotation table",
		zap.Int("rows", len(rows)),
		zap.String("output", outName(opts.Output)),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}

// newProvider picks the annotation source: none, a precomputed file, the
// REST API, or the API behind a DuckDB cache. The returned func releases
// whatever the provider holds open.
func newProvider(opts Options, logger *zap.Logger) (ensembl.RowProvider, func(), error) {
	noop := func() {}

	switch {
	case opts.NoVep:
		logger.Info("remote annotation disabled")
		return ensembl.NoneProvider{}, noop, nil
	case opts.VepJSON != "":
		logger.Info("reading annotations from file", zap.String("path", opts.VepJSON))
		return ensembl.FileProvider{Path: opts.VepJSON}, noop, nil
	}

	client := ensembl.NewClient(ensembl.ClientOptions{
		Assembly:  opts.Assembly,
		ChunkSize: opts.ChunkSize,
		Retries:   opts.Retries,
		Timeout:   opts.Timeout,
		BaseURL:   opts.VepURL,
	})
	client.SetLogger(logger)

	if opts.CachePath == "" {
		return client, noop, nil
	}

	store, err := vepcache.Open(opts.CachePath)
	if err != nil {
		return nil, noop, fmt.Errorf("open vep cache: %w", err)
	}
	cached := ensembl.NewCachedProvider(store, client, opts.Assembly)
	cached.SetLogger(logger)
	return cached, func() { store.Close() }, nil
}

func outName(path string) string {
	if path == "" || path == "-" {
		return "stdout"
	}
	return path
}
