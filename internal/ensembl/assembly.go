// Package ensembl queries the Ensembl VEP REST API and normalizes its
// responses into flat annotation rows.
package ensembl

import (
	"fmt"
	"strings"
)

// Assembly selects the reference genome build, which determines the API
// host serving the VEP endpoint.
type Assembly string

const (
	GRCh37 Assembly = "GRCh37" // aka hg19 or human_g1k_v37
	GRCh38 Assembly = "GRCh38" // aka hg38
)

// BaseURL returns the API host for this assembly.
func (a Assembly) BaseURL() string {
	if a == GRCh37 {
		return "https://grch37.rest.ensembl.org"
	}
	return "https://rest.ensembl.org"
}

// ParseAssembly recognizes an assembly name case-insensitively.
func ParseAssembly(s string) (Assembly, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "GRCH37":
		return GRCh37, nil
	case "GRCH38":
		return GRCh38, nil
	}
	return "", fmt.Errorf("unknown assembly %q (choose GRCh37 or GRCh38)", s)
}
