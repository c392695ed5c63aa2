// Package ensembl queries the Ensembl VEP REST API and normalizes its
// responses into flat annotation rows.
package ensembl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/andypohl/varona/internal/vcf"
)

const (
	// DefaultChunkSize is the VEP region endpoint's documented cap on
	// variants per request.
	DefaultChunkSize = 200
	// DefaultRetries bounds how many times a 429 response is retried
	// before the chunk is given up on.
	DefaultRetries = 3
	// DefaultTimeout applies per request.
	DefaultTimeout = 300 * time.Second

	// longRetryDelay caps the wait after a 429 without a Retry-After
	// header.
	longRetryDelay = 60 * time.Second
)

// defaultParams asks the API to classify variants and to pick a single
// representative consequence per variant.
const defaultParams = "species=human&variant_class=true&pick=true"

// Client annotates variants through the VEP region endpoint. Requests go
// out strictly one at a time, in input order; the request volume this
// tool operates at does not justify parallel fan-out. A chunk whose
// request fails is recovered with placeholder rows so one bad chunk never
// aborts the run.
type Client struct {
	assembly  Assembly
	chunkSize int
	retries   int
	baseURL   string
	http      *http.Client
	logger    *zap.Logger
}

// ClientOptions configures a Client. Zero values fall back to the
// defaults above.
type ClientOptions struct {
	Assembly  Assembly
	ChunkSize int
	Retries   int
	Timeout   time.Duration
	BaseURL   string // overrides the assembly's host, for testing
}

// NewClient creates a VEP API client.
func NewClient(opts ClientOptions) *Client {
	assembly := opts.Assembly
	if assembly == "" {
		assembly = GRCh38
	}
	chunkSize := opts.ChunkSize
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	retries := opts.Retries
	if retries <= 0 {
		retries = DefaultRetries
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = assembly.BaseURL()
	}

	return &Client{
		assembly:  assembly,
		chunkSize: chunkSize,
		retries:   retries,
		baseURL:   baseURL,
		http:      &http.Client{Timeout: timeout},
		logger:    zap.NewNop(),
	}
}

// SetLogger sets the logger for warning and progress messages.
func (c *Client) SetLogger(l *zap.Logger) {
	c.logger = l
}

// Rows annotates the records chunk by chunk and returns the flattened
// rows in input order. Chunk failures are logged and replaced with
// placeholder rows; the only errors returned are cancellation.
func (c *Client) Rows(ctx context.Context, recs []*vcf.Record) ([]Row, error) {
	chunks := chunkRecords(recs, c.chunkSize)

	var rows []Row
	for i, chunk := range chunks {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		chunkRows, err := c.annotateChunk(ctx, chunk)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			c.logger.Warn("vep chunk failed, substituting placeholder rows",
				zap.Int("chunk", i+1),
				zap.Int("variants", len(chunk)),
				zap.Error(err))
			chunkRows = placeholders(chunk)
		}
		rows = append(rows, chunkRows...)
		c.logger.Info("processed vep chunk",
			zap.Int("chunk", i+1),
			zap.Int("chunks", len(chunks)))
	}
	return rows, nil
}

// annotateChunk issues one request for the chunk and maps response items
// back to the submitted records via the echoed input line. Rows come out
// in record order regardless of response order.
func (c *Client) annotateChunk(ctx context.Context, recs []*vcf.Record) ([]Row, error) {
	regions := make([]string, len(recs))
	pending := make(map[string][]int, len(recs))
	for i, rec := range recs {
		regions[i] = rec.Region()
		pending[regions[i]] = append(pending[regions[i]], i)
	}

	items, err := c.post(ctx, regions)
	if err != nil {
		return nil, err
	}

	perRecord := make([][]Row, len(recs))
	for _, item := range items {
		queue := pending[item.Input]
		if len(queue) == 0 {
			c.logger.Debug("response item matches no submitted variant",
				zap.String("input", item.Input))
			continue
		}
		idx := queue[0]
		pending[item.Input] = queue[1:]
		perRecord[idx] = flatten(recordKeyRow(recs[idx]), item)
	}

	var rows []Row
	for _, rs := range perRecord {
		rows = append(rows, rs...)
	}
	return rows, nil
}

// vepRequest is the POST body for the region endpoint.
type vepRequest struct {
	Variants []string `json:"variants"`
}

func (c *Client) post(ctx context.Context, regions []string) ([]responseItem, error) {
	body, err := json.Marshal(vepRequest{Variants: regions})
	if err != nil {
		return nil, &RequestError{Message: fmt.Sprintf("encode request: %v", err)}
	}
	url := c.baseURL + "/vep/homo_sapiens/region?" + defaultParams

	policy := backoff.NewExponentialBackOff()
	policy.MaxInterval = longRetryDelay
	policy.MaxElapsedTime = 0
	policy.Reset()

	for attempt := 0; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, &RequestError{Message: err.Error()}
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, &RequestError{Message: err.Error()}
		}

		if resp.StatusCode == http.StatusOK {
			var items []responseItem
			err := json.NewDecoder(resp.Body).Decode(&items)
			resp.Body.Close()
			if err != nil {
				return nil, &RequestError{Message: fmt.Sprintf("decode response: %v", err)}
			}
			return items, nil
		}

		if resp.StatusCode == http.StatusTooManyRequests && attempt < c.retries {
			delay := retryDelay(resp.Header.Get("Retry-After"), policy)
			resp.Body.Close()
			c.logger.Warn("vep api rate limit, retrying",
				zap.Duration("delay", delay),
				zap.Int("attempt", attempt+1))
			select {
			case <-time.After(delay):
				continue
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		status := resp.StatusCode
		resp.Body.Close()
		return nil, &RequestError{Status: status, Message: strings.TrimSpace(string(msg))}
	}
}

// retryDelay picks the wait before retrying a 429: the server's
// Retry-After when present, otherwise the next exponential backoff step.
func retryDelay(retryAfter string, policy backoff.BackOff) time.Duration {
	if retryAfter != "" {
		if secs, err := strconv.Atoi(strings.TrimSpace(retryAfter)); err == nil && secs >= 0 {
			return time.Duration(secs) * time.Second
		}
	}
	d := policy.NextBackOff()
	if d == backoff.Stop {
		d = longRetryDelay
	}
	return d
}

// chunkRecords splits recs into runs of at most size, preserving order.
func chunkRecords(recs []*vcf.Record, size int) [][]*vcf.Record {
	var chunks [][]*vcf.Record
	for start := 0; start < len(recs); start += size {
		end := start + size
		if end > len(recs) {
			end = len(recs)
		}
		chunks = append(chunks, recs[start:end])
	}
	return chunks
}

func placeholders(recs []*vcf.Record) []Row {
	rows := make([]Row, 0, len(recs))
	for _, rec := range recs {
		rows = append(rows, Placeholder(rec))
	}
	return rows
}

// RequestError reports a failed chunk request: transport failure, an
// unexpected status, a rate limit that survived all retries, or an
// undecodable payload. The caller recovers it with placeholder rows.
type RequestError struct {
	Status  int // HTTP status, 0 for transport errors
	Message string
}

func (e *RequestError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("vep request failed with status %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("vep request failed: %s", e.Message)
}
