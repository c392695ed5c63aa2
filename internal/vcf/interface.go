// Package vcf provides VCF record reading for the annotation pipeline.
package vcf

// VariantSource is the interface for readers that yield VCF records.
type VariantSource interface {
	// Next reads the next record.
	// Returns nil, nil when there are no more records.
	Next() (*Record, error)

	// Close closes the source and releases resources.
	Close() error

	// LineNumber returns the line number most recently read.
	LineNumber() int
}
