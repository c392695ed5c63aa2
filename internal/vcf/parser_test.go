package vcf

import (
	"compress/gzip"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const platypusHeader = `##fileformat=VCFv4.0
##INFO=<ID=TC,Number=1,Type=Integer,Description="Total coverage at this locus">
##INFO=<ID=TR,Number=.,Type=Integer,Description="Total number of reads containing this variant">
##INFO=<ID=FR,Number=.,Type=Float,Description="Estimated population frequency of variant">
##FORMAT=<ID=GT,Number=1,Type=String,Description="Unphased genotypes">
#CHROM	POS	ID	REF	ALT	QUAL	FILTER	INFO	FORMAT	sample_A	sample_B	sample_C	sample_D
`

const singleRecord = platypusHeader +
	"1	100	rs123	A	G	2965	PASS	TC=50;TR=10;FR=0.5	GT	0/0	0/1	1/1	./.\n"

func TestParserSingleRecord(t *testing.T) {
	p, err := NewParserFromReader(strings.NewReader(singleRecord))
	if err != nil {
		t.Fatalf("Failed to create parser: %v", err)
	}

	rec, err := p.Next()
	if err != nil {
		t.Fatalf("Failed to read record: %v", err)
	}
	if rec == nil {
		t.Fatal("Expected a record, got nil")
	}

	if rec.Chrom != "1" {
		t.Errorf("Expected chrom 1, got %s", rec.Chrom)
	}
	if rec.Pos != 100 {
		t.Errorf("Expected pos 100, got %d", rec.Pos)
	}
	if rec.Ref != "A" {
		t.Errorf("Expected ref A, got %s", rec.Ref)
	}
	if rec.Alt() != "G" {
		t.Errorf("Expected alt G, got %s", rec.Alt())
	}
	if rec.ID != "rs123" {
		t.Errorf("Expected id rs123, got %s", rec.ID)
	}

	tc, ok := rec.InfoInt("TC")
	if !ok || tc != 50 {
		t.Errorf("Expected TC=50, got %d (ok=%v)", tc, ok)
	}
	tr, ok := rec.InfoInts("TR")
	if !ok || len(tr) != 1 || tr[0] != 10 {
		t.Errorf("Expected TR=[10], got %v (ok=%v)", tr, ok)
	}
	fr, ok := rec.InfoFloats("FR")
	if !ok || len(fr) != 1 || fr[0] != 0.5 {
		t.Errorf("Expected FR=[0.5], got %v (ok=%v)", fr, ok)
	}

	if len(rec.Samples) != 4 {
		t.Fatalf("Expected 4 samples, got %d", len(rec.Samples))
	}
	wantGT := [][]int{{0, 0}, {0, 1}, {1, 1}, {-1, -1}}
	for i, want := range wantGT {
		got := rec.Samples[i].GT
		if len(got) != len(want) {
			t.Fatalf("Sample %d: expected GT %v, got %v", i, want, got)
		}
		for j := range want {
			if got[j] != want[j] {
				t.Errorf("Sample %d allele %d: expected %d, got %d", i, j, want[j], got[j])
			}
		}
	}
	if rec.Samples[0].Name != "sample_A" {
		t.Errorf("Expected sample name sample_A, got %s", rec.Samples[0].Name)
	}

	// No more records
	rec2, err := p.Next()
	if err != nil {
		t.Fatalf("Error checking for more records: %v", err)
	}
	if rec2 != nil {
		t.Error("Expected no more records")
	}
}

func TestParserMultipleRecords(t *testing.T) {
	input := platypusHeader +
		"1	100	.	A	G	100	PASS	TC=50;TR=10	GT	0/0	0/1	1/1	./.\n" +
		"1	200	.	C	T	100	PASS	TC=40;TR=5	GT	0/0	0/0	0/1	0/1\n" +
		"2	300	.	G	A,C	100	PASS	TC=60;TR=12,3	GT	0/1	0/2	1/2	0/0\n"

	p, err := NewParserFromReader(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Failed to create parser: %v", err)
	}

	var recs []*Record
	for {
		rec, err := p.Next()
		if err != nil {
			t.Fatalf("Error reading record: %v", err)
		}
		if rec == nil {
			break
		}
		recs = append(recs, rec)
	}

	if len(recs) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(recs))
	}

	// Multi-allelic line stays one record
	multi := recs[2]
	if len(multi.Alts) != 2 {
		t.Errorf("Expected 2 alts, got %d", len(multi.Alts))
	}
	if multi.Alt() != "A,C" {
		t.Errorf("Expected alt A,C, got %s", multi.Alt())
	}
	tr, ok := multi.InfoInts("TR")
	if !ok || len(tr) != 2 || tr[0] != 12 || tr[1] != 3 {
		t.Errorf("Expected TR=[12 3], got %v (ok=%v)", tr, ok)
	}
}

func TestParserGzipFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "input.vcf.gz")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	gz := gzip.NewWriter(f)
	if _, err := gz.Write([]byte(singleRecord)); err != nil {
		t.Fatalf("Failed to write gzip data: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("Failed to close gzip writer: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Failed to close temp file: %v", err)
	}

	p, err := NewParser(path)
	if err != nil {
		t.Fatalf("Failed to create parser: %v", err)
	}
	defer p.Close()

	rec, err := p.Next()
	if err != nil {
		t.Fatalf("Failed to read record: %v", err)
	}
	if rec == nil {
		t.Fatal("Expected a record, got nil")
	}
	if rec.Pos != 100 {
		t.Errorf("Expected pos 100, got %d", rec.Pos)
	}
}

func TestParserSampleNames(t *testing.T) {
	p, err := NewParserFromReader(strings.NewReader(singleRecord))
	if err != nil {
		t.Fatalf("Failed to create parser: %v", err)
	}

	names := p.SampleNames()
	want := []string{"sample_A", "sample_B", "sample_C", "sample_D"}
	if len(names) != len(want) {
		t.Fatalf("Expected %d sample names, got %d", len(want), len(names))
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("Sample name %d: expected %s, got %s", i, want[i], names[i])
		}
	}
}

func TestParserMissingHeader(t *testing.T) {
	input := "1	100	.	A	G	100	PASS	TC=50\n"
	_, err := NewParserFromReader(strings.NewReader(input))
	if err == nil {
		t.Fatal("Expected error for input without header")
	}
}

func TestParserBadPosition(t *testing.T) {
	input := platypusHeader +
		"1	notanumber	.	A	G	100	PASS	TC=50	GT	0/0	0/1	1/1	./.\n"

	p, err := NewParserFromReader(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Failed to create parser: %v", err)
	}

	_, err = p.Next()
	if err == nil {
		t.Fatal("Expected parse error for bad position")
	}
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("Expected *ParseError, got %T: %v", err, err)
	}
	if perr.Line == 0 {
		t.Error("Expected line number in parse error")
	}
}

func TestParseError(t *testing.T) {
	err := &ParseError{
		Line:    42,
		Message: "expected 8 columns, found 7",
	}

	expected := "vcf parse error at line 42: expected 8 columns, found 7"
	if err.Error() != expected {
		t.Errorf("Error message mismatch: got %q, want %q", err.Error(), expected)
	}
}
