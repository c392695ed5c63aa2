// Package ensembl queries the Ensembl VEP REST API and normalizes its
// responses into flat annotation rows.
package ensembl

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	gzip "github.com/klauspost/pgzip"

	"github.com/andypohl/varona/internal/vcf"
)

// FileProvider replays annotations from a pre-fetched VEP output file
// instead of calling the API. Two shapes are accepted: the JSON array the
// REST endpoint returns, and the JSON-lines file the VEP command-line
// tool writes, either plain or gzip-compressed. Rows are keyed by the
// file's own coordinates.
type FileProvider struct {
	Path string
}

// Rows implements RowProvider. The submitted records are not consulted;
// the merge step reconciles file rows with the input variants by key.
func (p FileProvider) Rows(_ context.Context, _ []*vcf.Record) ([]Row, error) {
	f, err := os.Open(p.Path)
	if err != nil {
		return nil, fmt.Errorf("open vep json: %w", err)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	var r io.Reader = br
	if magic, err := br.Peek(2); err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("open vep json: %w", err)
		}
		defer gz.Close()
		r = gz
	}

	items, err := readItems(r)
	if err != nil {
		return nil, fmt.Errorf("read vep json %s: %w", p.Path, err)
	}

	var rows []Row
	for _, item := range items {
		rows = append(rows, flatten(itemKeyRow(item), item)...)
	}
	return rows, nil
}

// readItems decodes either a single JSON array or a stream of
// one-per-line JSON objects.
func readItems(r io.Reader) ([]responseItem, error) {
	br := bufio.NewReader(r)
	first, err := peekNonSpace(br)
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if first == '[' {
		var items []responseItem
		if err := json.NewDecoder(br).Decode(&items); err != nil {
			return nil, err
		}
		return items, nil
	}

	var items []responseItem
	dec := json.NewDecoder(br)
	for {
		var item responseItem
		if err := dec.Decode(&item); err == io.EOF {
			return items, nil
		} else if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
}

// peekNonSpace returns the first byte that is not JSON whitespace.
func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.Peek(1)
		if err != nil {
			return 0, err
		}
		switch b[0] {
		case ' ', '\t', '\r', '\n':
			if _, err := br.ReadByte(); err != nil {
				return 0, err
			}
		default:
			return b[0], nil
		}
	}
}
