// Package export uploads server-rendered pages to S3.
//
// Example usage:
//
//	client := export.NewClient(export.ClientConfig{Region: "us-east-1"})
//	exp := export.NewS3Exporter(client, "my-bucket", "site/")
//	res, err := exp.ExportElement(ctx, "index", app)
package export

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/vango-dev/arbor"
	"github.com/vango-dev/arbor/internal/errors"
	"github.com/vango-dev/arbor/pkg/element"
)

// PutObjectAPI is the subset of *s3.Client used by the exporter.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Result describes an uploaded page.
type Result struct {
	Bucket string
	Key    string
	ETag   string
	Size   int
}

// URI returns the s3:// location of the page.
func (r Result) URI() string {
	return "s3://" + r.Bucket + "/" + r.Key
}

// S3Exporter writes pages under a key prefix of one bucket.
type S3Exporter struct {
	client PutObjectAPI
	bucket string
	prefix string
	title  string
	now    func() time.Time
	logger *slog.Logger
}

// Option configures an S3Exporter.
type Option func(*S3Exporter)

// WithTitle sets the <title> of exported documents.
func WithTitle(title string) Option {
	return func(e *S3Exporter) {
		e.title = title
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *S3Exporter) {
		e.logger = logger
	}
}

// WithClock sets the time source used for upload metadata.
func WithClock(now func() time.Time) Option {
	return func(e *S3Exporter) {
		e.now = now
	}
}

// NewS3Exporter creates an exporter.
func NewS3Exporter(client PutObjectAPI, bucket, prefix string, opts ...Option) *S3Exporter {
	e := &S3Exporter{
		client: client,
		bucket: bucket,
		prefix: prefix,
		title:  "arbor",
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Key returns the object key for a page name.
func (e *S3Exporter) Key(name string) string {
	name = strings.TrimSuffix(strings.TrimPrefix(name, "/"), ".html")
	if name == "" {
		name = "index"
	}
	return path.Join(e.prefix, name+".html")
}

// Export uploads body, wrapped in an HTML document, as name.html.
func (e *S3Exporter) Export(ctx context.Context, name, body string) (Result, error) {
	if e.bucket == "" {
		return Result{}, errors.New("E060")
	}
	doc := Document(e.title, body)
	key := e.Key(name)

	out, err := e.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(e.bucket),
		Key:         aws.String(key),
		Body:        strings.NewReader(doc),
		ContentType: aws.String("text/html; charset=utf-8"),
		Metadata: map[string]string{
			"rendered-at": e.now().UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		return Result{}, errors.New("E061").
			WithDetailf("s3://%s/%s", e.bucket, key).
			Wrap(err)
	}

	res := Result{Bucket: e.bucket, Key: key, Size: len(doc)}
	if out != nil && out.ETag != nil {
		res.ETag = *out.ETag
	}
	e.logger.Info("page exported", "uri", res.URI(), "bytes", res.Size)
	return res, nil
}

// ExportElement renders el and uploads the result.
func (e *S3Exporter) ExportElement(ctx context.Context, name string, el *element.Element, opts ...arbor.Option) (Result, error) {
	body, err := arbor.RenderToString(el, opts...)
	if err != nil {
		return Result{}, fmt.Errorf("render %s: %w", name, err)
	}
	return e.Export(ctx, name, body)
}

// Document wraps body in a minimal HTML page.
func Document(title, body string) string {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>")
	b.WriteString(title)
	b.WriteString("</title>\n</head>\n<body>\n")
	b.WriteString(body)
	b.WriteString("\n</body>\n</html>\n")
	return b.String()
}

// ClientConfig configures NewClient.
type ClientConfig struct {
	Region string

	// Endpoint overrides the S3 endpoint, e.g. for MinIO. Path-style
	// addressing is used when it is set.
	Endpoint string
}

// NewClient creates an S3 client with static credentials read from
// AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY and AWS_SESSION_TOKEN.
func NewClient(cfg ClientConfig) *s3.Client {
	opts := s3.Options{
		Region:      cfg.Region,
		Credentials: aws.NewCredentialsCache(envCredentials()),
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
		opts.UsePathStyle = true
	}
	return s3.New(opts)
}

func envCredentials() aws.CredentialsProvider {
	return aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
		id, secret := os.Getenv("AWS_ACCESS_KEY_ID"), os.Getenv("AWS_SECRET_ACCESS_KEY")
		if id == "" || secret == "" {
			return aws.Credentials{}, fmt.Errorf("export: AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY must be set")
		}
		return aws.Credentials{
			AccessKeyID:     id,
			SecretAccessKey: secret,
			SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
			Source:          "Environment",
		}, nil
	})
}
