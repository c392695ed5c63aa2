// Package bcftools shells out to bcftools for VCF preprocessing.
package bcftools

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// DisableEnv, when set to "1", makes Available report false even when the
// tool is on PATH.
const DisableEnv = "VARONA_DISABLE_BCFTOOLS"

// AllowedTags are the INFO tags the fill-tags plugin may be asked to add.
var AllowedTags = map[string]bool{
	"AN":  true,
	"AC":  true,
	"AF":  true,
	"MAF": true,
}

// Available reports whether bcftools can be invoked.
func Available() bool {
	if os.Getenv(DisableEnv) == "1" {
		return false
	}
	_, err := exec.LookPath("bcftools")
	return err == nil
}

// FillTags runs the bcftools fill-tags plugin, writing a bgzip-compressed
// copy of in to out with the given INFO tags added.
func FillTags(ctx context.Context, in, out string, tags []string) error {
	if len(tags) == 0 {
		return fmt.Errorf("fill-tags: no tags requested")
	}
	for _, tag := range tags {
		if !AllowedTags[tag] {
			return fmt.Errorf("fill-tags: tag %q not allowed (only AN, AC, AF, MAF)", tag)
		}
	}

	cmd := exec.CommandContext(ctx, "bcftools", "plugin", "fill-tags", in,
		"-o", out, "-O", "z", "--", "-t", strings.Join(tags, ","))
	if msg, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("bcftools fill-tags: %w: %s", err, strings.TrimSpace(string(msg)))
	}
	return nil
}

// AnnotatedCopy writes a temporary copy of the VCF with the MAF tag filled
// in and returns its path. The cleanup func removes the temporary directory
// and is safe to call whether or not an error occurred.
func AnnotatedCopy(ctx context.Context, vcfPath string) (string, func(), error) {
	dir, err := os.MkdirTemp("", "varona-bcftools-")
	if err != nil {
		return "", func() {}, fmt.Errorf("create temp dir: %w", err)
	}
	cleanup := func() { os.RemoveAll(dir) }

	out := filepath.Join(dir, "filled.vcf.gz")
	if err := FillTags(ctx, vcfPath, out, []string{"MAF"}); err != nil {
		cleanup()
		return "", func() {}, err
	}
	return out, cleanup, nil
}
