// Package source opens the byte streams that documents are decoded from:
// standard input, local files, http(s) URLs and S3 objects.
//
// Locations ending in .gz, .zst or .zstd are decompressed transparently.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/ldjson-stream/ldjson/pkg/tlsconfig"
)

// Stdin is the location that reads standard input.
const Stdin = "-"

// S3API is the part of *s3.Client that Open uses.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

type config struct {
	tls    tlsconfig.Config
	client *http.Client
	s3     S3API
	stdin  io.Reader
	logger *slog.Logger
}

// Option configures Open.
type Option func(*config)

// WithTLS sets the TLS configuration for http(s) locations.
func WithTLS(cfg tlsconfig.Config) Option {
	return func(c *config) {
		c.tls = cfg
	}
}

// WithHTTPClient replaces the client built from the TLS configuration.
// URLs are still checked with tlsconfig.Config.ValidateURL.
func WithHTTPClient(client *http.Client) Option {
	return func(c *config) {
		c.client = client
	}
}

// WithS3Client sets the client for s3:// locations.
//
// Default: an *s3.Client from the default AWS configuration chain
func WithS3Client(client S3API) Option {
	return func(c *config) {
		c.s3 = client
	}
}

// WithStdin replaces os.Stdin for the "-" location.
func WithStdin(r io.Reader) Option {
	return func(c *config) {
		c.stdin = r
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// Open opens location for reading. The caller must close the result.
//
//	"-" or ""             standard input (left open on Close)
//	http://, https://     GET request; http:// needs tlsconfig Insecure
//	s3://bucket/key       S3 GetObject
//	anything else         local file path
func Open(ctx context.Context, location string, opts ...Option) (io.ReadCloser, error) {
	cfg := &config{
		stdin:  os.Stdin,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	var (
		rc  io.ReadCloser
		err error
	)
	switch {
	case location == "" || location == Stdin:
		return io.NopCloser(cfg.stdin), nil
	case strings.HasPrefix(location, "http://"), strings.HasPrefix(location, "https://"):
		rc, err = openHTTP(ctx, location, cfg)
	case strings.HasPrefix(location, "s3://"):
		rc, err = openS3(ctx, location, cfg)
	default:
		rc, err = os.Open(location)
	}
	if err != nil {
		return nil, err
	}

	encoding := EncodingFor(location)
	if encoding == "" {
		return rc, nil
	}
	cfg.logger.Debug("decompressing source", "location", location, "encoding", encoding)
	zr, err := Decompress(rc, encoding)
	if err != nil {
		rc.Close()
		return nil, err
	}
	return &multiCloser{Reader: zr, closers: []io.Closer{zr, rc}}, nil
}

// EncodingFor returns the compression implied by the location's suffix, or
// "" for none.
func EncodingFor(location string) string {
	p := location
	if u, err := url.Parse(location); err == nil && u.Scheme != "" && len(u.Scheme) > 1 {
		p = u.Path
	}
	switch strings.ToLower(path.Ext(p)) {
	case ".gz", ".gzip":
		return "gzip"
	case ".zst", ".zstd":
		return "zstd"
	default:
		return ""
	}
}

func openHTTP(ctx context.Context, location string, cfg *config) (io.ReadCloser, error) {
	if err := cfg.tls.ValidateURL(location); err != nil {
		return nil, err
	}
	client := cfg.client
	if client == nil {
		var err error
		client, err = tlsconfig.NewHTTPClient(cfg.tls)
		if err != nil {
			return nil, fmt.Errorf("failed to create HTTP client: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/x-ndjson, application/jsonl, application/json;q=0.9, */*;q=0.1")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", location, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("failed to fetch %s: unexpected status %s", location, resp.Status)
	}
	cfg.logger.Debug("fetched source", "location", location, "status", resp.StatusCode, "content_length", resp.ContentLength)
	return resp.Body, nil
}

func openS3(ctx context.Context, location string, cfg *config) (io.ReadCloser, error) {
	bucket, key, err := ParseS3Location(location)
	if err != nil {
		return nil, err
	}

	client := cfg.s3
	if client == nil {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		client = s3.NewFromConfig(awsCfg)
	}

	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get s3://%s/%s: %w", bucket, key, err)
	}
	cfg.logger.Debug("opened S3 object", "bucket", bucket, "key", key, "content_length", aws.ToInt64(out.ContentLength))
	return out.Body, nil
}

// ParseS3Location splits s3://bucket/key into its bucket and key.
func ParseS3Location(location string) (bucket, key string, err error) {
	u, err := url.Parse(location)
	if err != nil {
		return "", "", fmt.Errorf("invalid S3 location %q: %w", location, err)
	}
	if u.Scheme != "s3" || u.Host == "" {
		return "", "", fmt.Errorf("invalid S3 location %q: expected s3://bucket/key", location)
	}
	key = strings.TrimPrefix(u.Path, "/")
	if key == "" {
		return "", "", fmt.Errorf("invalid S3 location %q: missing object key", location)
	}
	return u.Host, key, nil
}

// multiCloser closes a decompressor and then the stream under it.
type multiCloser struct {
	io.Reader
	closers []io.Closer
}

func (m *multiCloser) Close() error {
	var errs []error
	for _, c := range m.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
