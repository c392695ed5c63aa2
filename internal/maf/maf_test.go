package maf

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andypohl/varona/internal/vcf"
)

// record builds a biallelic test record with the given genotypes.
func record(alts []string, gts [][]int, info map[string]interface{}) *vcf.Record {
	rec := &vcf.Record{
		Chrom: "1",
		Pos:   100,
		Ref:   "A",
		Alts:  alts,
		Info:  info,
	}
	for _, gt := range gts {
		rec.Samples = append(rec.Samples, vcf.SampleGenotype{GT: gt})
	}
	return rec
}

func TestFromSamples(t *testing.T) {
	tests := []struct {
		name string
		alts []string
		gts  [][]int
		want float64
	}{
		{
			// Of the six called alleles, ref and alt both appear three
			// times; the no-call sample drops out of both counts.
			name: "no-call excluded",
			alts: []string{"G"},
			gts:  [][]int{{0, 0}, {0, 1}, {1, 1}, {-1, -1}},
			want: 0.5,
		},
		{
			name: "one het sample",
			alts: []string{"G"},
			gts:  [][]int{{0, 1}},
			want: 0.5,
		},
		{
			// Frequencies are 1/6 and 5/6; the second-highest is 1/6.
			name: "three samples mostly hom-alt",
			alts: []string{"G"},
			gts:  [][]int{{0, 1}, {1, 1}, {1, 1}},
			want: 1.0 / 6.0,
		},
		{
			// Allele frequencies 0.1, 0.7 and 0.2; MAF is 0.2.
			name: "multi-allelic five samples",
			alts: []string{"G", "C"},
			gts:  [][]int{{0, 1}, {1, 1}, {1, 2}, {1, 1}, {1, 2}},
			want: 0.2,
		},
		{
			name: "hom-alt only",
			alts: []string{"G"},
			gts:  [][]int{{1, 1}, {1, 1}},
			want: 0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := FromSamples(record(tt.alts, tt.gts, nil))
			require.True(t, res.Defined)
			assert.InDelta(t, tt.want, res.Value, 1e-9)
			assert.Equal(t, Samples, res.Method)
		})
	}
}

func TestFromSamplesUndefined(t *testing.T) {
	res := FromSamples(record([]string{"G"}, [][]int{{-1, -1}, {-1, -1}}, nil))
	assert.False(t, res.Defined)

	res = FromSamples(record([]string{"G"}, nil, nil))
	assert.False(t, res.Defined)
}

func TestFromFR(t *testing.T) {
	// FR covers the alt alleles only; ref frequency is 1-sum(FR).
	res := FromFR(record([]string{"G"}, nil, map[string]interface{}{"FR": 1.0}))
	require.True(t, res.Defined)
	assert.InDelta(t, 0.0, res.Value, 1e-9)

	res = FromFR(record([]string{"G"}, nil, map[string]interface{}{"FR": 0.5}))
	require.True(t, res.Defined)
	assert.InDelta(t, 0.5, res.Value, 1e-9)
	assert.Equal(t, FR, res.Method)

	res = FromFR(record([]string{"G", "C"}, nil, map[string]interface{}{"FR": []float32{0.5, 0.25}}))
	require.True(t, res.Defined)
	assert.InDelta(t, 0.25, res.Value, 1e-9)
}

func TestFromFRDivergesFromSamples(t *testing.T) {
	// A homozygous-alt call carrying FR=0.5: the FR field reports a het
	// frequency while the genotypes say otherwise. The strategies are
	// allowed to disagree here.
	rec := record([]string{"G"}, [][]int{{1, 1}}, map[string]interface{}{"FR": 0.5})

	fromFR := FromFR(rec)
	fromSamples := FromSamples(rec)
	require.True(t, fromFR.Defined)
	require.True(t, fromSamples.Defined)
	assert.InDelta(t, 0.5, fromFR.Value, 1e-9)
	assert.InDelta(t, 0.0, fromSamples.Value, 1e-9)
}

func TestFromFRUndefined(t *testing.T) {
	res := FromFR(record([]string{"G"}, nil, nil))
	assert.False(t, res.Defined)

	res = FromFR(record([]string{"G"}, nil, map[string]interface{}{"FR": "notanumber"}))
	assert.False(t, res.Defined)
}

func TestFromTag(t *testing.T) {
	res := FromTag(record([]string{"G"}, nil, map[string]interface{}{"MAF": 0.5}))
	require.True(t, res.Defined)
	assert.InDelta(t, 0.5, res.Value, 1e-9)
	assert.Equal(t, Bcftools, res.Method)

	res = FromTag(record([]string{"G"}, nil, nil))
	assert.False(t, res.Defined)
}

func TestParseMethod(t *testing.T) {
	tests := []struct {
		in   string
		want Method
	}{
		{"SAMPLES", Samples},
		{"samples", Samples},
		{"Fr", FR},
		{"bcftools", Bcftools},
		{" BCFTOOLS ", Bcftools},
	}
	for _, tt := range tests {
		got, err := ParseMethod(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseMethod("median")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "median")
}

func TestForMethod(t *testing.T) {
	calc, err := ForMethod(Samples)
	require.NoError(t, err)
	require.NotNil(t, calc)

	calc, err = ForMethod(FR)
	require.NoError(t, err)
	require.NotNil(t, calc)
}

func TestForMethodBcftoolsMissing(t *testing.T) {
	t.Setenv("VARONA_DISABLE_BCFTOOLS", "1")

	_, err := ForMethod(Bcftools)
	require.Error(t, err)
	var cerr *ConfigError
	assert.True(t, errors.As(err, &cerr))
}

func TestForMethodBcftoolsPresent(t *testing.T) {
	dir := t.TempDir()
	script := "#!/bin/sh\nexit 0\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bcftools"), []byte(script), 0o755))
	t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))
	t.Setenv("VARONA_DISABLE_BCFTOOLS", "0")

	calc, err := ForMethod(Bcftools)
	require.NoError(t, err)
	require.NotNil(t, calc)

	res := calc(record([]string{"G"}, nil, map[string]interface{}{"MAF": 0.25}))
	require.True(t, res.Defined)
	assert.InDelta(t, 0.25, res.Value, 1e-9)
}
