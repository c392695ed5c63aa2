// Package maf computes minor allele frequencies from VCF records.
package maf

import (
	"fmt"
	"strings"

	"github.com/andypohl/varona/internal/bcftools"
	"github.com/andypohl/varona/internal/vcf"
)

// Method selects one of the competing MAF strategies.
type Method int

const (
	// Samples derives allele counts from every sample's genotype field.
	Samples Method = iota
	// FR reads Platypus's FR INFO field.
	FR
	// Bcftools reads the MAF INFO tag added by bcftools +fill-tags.
	Bcftools
)

func (m Method) String() string {
	switch m {
	case Samples:
		return "SAMPLES"
	case FR:
		return "FR"
	case Bcftools:
		return "BCFTOOLS"
	}
	return "UNKNOWN"
}

// ParseMethod recognizes a method name case-insensitively.
func ParseMethod(s string) (Method, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "SAMPLES":
		return Samples, nil
	case "FR":
		return FR, nil
	case "BCFTOOLS":
		return Bcftools, nil
	}
	return 0, fmt.Errorf("unknown maf method %q (choose SAMPLES, FR or BCFTOOLS)", s)
}

// Calculator computes a minor allele frequency for one record.
type Calculator func(*vcf.Record) Result

// ForMethod resolves the calculator for a method once, before any record
// is processed. The BCFTOOLS method depends on an external tool and fails
// here with a ConfigError when the tool cannot be found, so the caller can
// fall back to another strategy up front.
func ForMethod(method Method) (Calculator, error) {
	switch method {
	case Samples:
		return FromSamples, nil
	case FR:
		return FromFR, nil
	case Bcftools:
		if !bcftools.Available() {
			return nil, &ConfigError{Message: "maf method BCFTOOLS requires bcftools on PATH"}
		}
		return FromTag, nil
	}
	return nil, &ConfigError{Message: fmt.Sprintf("unknown maf method %d", method)}
}

// ConfigError reports a MAF strategy that cannot be satisfied by the
// current environment or configuration.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("maf configuration error: %s", e.Message)
}
