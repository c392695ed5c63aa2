package ensembl

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	gzip "github.com/klauspost/pgzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeAnnotationFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const restArrayJSON = `[
  {
    "input": "1 100 . A G . . .",
    "seq_region_name": "1",
    "start": 100,
    "allele_string": "A/G",
    "variant_class": "SNV",
    "most_severe_consequence": "missense_variant",
    "transcript_consequences": [
      {"gene_symbol": "FOO", "gene_id": "ENSG1", "transcript_id": "T1"}
    ]
  },
  {
    "input": "2 200 . C T . . .",
    "seq_region_name": "2",
    "start": 200,
    "allele_string": "C/T",
    "variant_class": "SNV",
    "most_severe_consequence": "synonymous_variant",
    "transcript_consequences": []
  }
]`

const cliLinesJSON = `{"seq_region_name": "1", "start": 100, "allele_string": "A/G", "variant_class": "SNV", "most_severe_consequence": "downstream_gene_variant", "nearest": ["BAR"]}
{"seq_region_name": "X", "start": 5, "allele_string": "G/A,C", "variant_class": "SNV", "most_severe_consequence": "missense_variant", "transcript_consequences": [{"gene_symbol": "BAZ", "gene_id": "ENSG2", "transcript_id": "T9"}]}
`

func TestFileProviderRestArray(t *testing.T) {
	path := writeAnnotationFile(t, "vep.json", restArrayJSON)
	rows, err := FileProvider{Path: path}.Rows(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "1", rows[0].Chrom)
	assert.Equal(t, int64(100), rows[0].Pos)
	assert.Equal(t, "A", rows[0].Ref)
	assert.Equal(t, "G", rows[0].Alt)
	assert.Equal(t, "FOO", rows[0].GeneName)
	assert.Equal(t, "T1", rows[0].TranscriptID)

	assert.Equal(t, "2", rows[1].Chrom)
	assert.Equal(t, "synonymous_variant", rows[1].Effect)
	assert.Empty(t, rows[1].GeneName)
}

func TestFileProviderJSONLines(t *testing.T) {
	path := writeAnnotationFile(t, "vep.jsonl", cliLinesJSON)
	rows, err := FileProvider{Path: path}.Rows(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	// nearest gene fills gene_name when no transcript consequence names one
	assert.Equal(t, "BAR", rows[0].GeneName)
	assert.Equal(t, "downstream_gene_variant", rows[0].Effect)

	assert.Equal(t, "X", rows[1].Chrom)
	assert.Equal(t, "G", rows[1].Ref)
	assert.Equal(t, "A,C", rows[1].Alt)
	assert.Equal(t, "BAZ", rows[1].GeneName)
}

func TestFileProviderGzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vep.json.gz")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := gzip.NewWriter(f)
	_, err = zw.Write([]byte(cliLinesJSON))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	rows, err := FileProvider{Path: path}.Rows(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "BAR", rows[0].GeneName)
}

func TestFileProviderEmptyFile(t *testing.T) {
	path := writeAnnotationFile(t, "empty.json", "")
	rows, err := FileProvider{Path: path}.Rows(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestFileProviderMissingFile(t *testing.T) {
	_, err := FileProvider{Path: filepath.Join(t.TempDir(), "nope.json")}.Rows(context.Background(), nil)
	require.Error(t, err)
}

func TestParseAssembly(t *testing.T) {
	tests := []struct {
		in      string
		want    Assembly
		wantErr bool
	}{
		{"GRCh37", GRCh37, false},
		{"grch38", GRCh38, false},
		{"GRCH37", GRCh37, false},
		{"hg19", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseAssembly(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestAssemblyBaseURL(t *testing.T) {
	assert.Equal(t, "https://grch37.rest.ensembl.org", GRCh37.BaseURL())
	assert.Equal(t, "https://rest.ensembl.org", GRCh38.BaseURL())
}
