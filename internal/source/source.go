// Package source opens the CSV exports an import reads from. A location is
// a local path, a file:// URL or an s3://bucket/key object.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/CatalogImport/internal/config"
	"github.com/JonMunkholm/CatalogImport/internal/core"
	"github.com/JonMunkholm/CatalogImport/internal/csv"
)

// ErrUnsupportedScheme is returned for locations that are neither local
// files nor S3 objects.
var ErrUnsupportedScheme = errors.New("unsupported source scheme")

// ErrS3NotConfigured is returned when an s3:// location is opened by an
// Opener built without an S3 client.
var ErrS3NotConfigured = errors.New("s3 client not configured")

// ObjectGetter is the part of *s3.Client the Opener needs.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// NewS3Client builds an S3 client from storage settings. Static credentials
// are used when both keys are set, otherwise the default AWS chain applies.
func NewS3Client(ctx context.Context, cfg config.StorageConfig) (*s3.Client, error) {
	opts := []func(*awscfg.LoadOptions) error{
		awscfg.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awscfg.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awscfg.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	}), nil
}

// Opener resolves locations to readers.
type Opener struct {
	s3 ObjectGetter
}

// NewOpener returns an Opener. client may be nil when only local files are
// read.
func NewOpener(client ObjectGetter) *Opener {
	return &Opener{s3: client}
}

// Open returns a reader for the content at location. The caller closes it.
func (o *Opener) Open(ctx context.Context, location string) (io.ReadCloser, error) {
	scheme, rest, ok := strings.Cut(location, "://")
	if !ok {
		return openFile(location)
	}

	switch strings.ToLower(scheme) {
	case "file":
		return openFile(rest)
	case "s3":
		return o.openObject(ctx, location)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, scheme)
	}
}

// ReadText opens location and returns its content as clean UTF-8 text,
// failing with csv.ErrFileTooLarge past maxBytes.
func (o *Opener) ReadText(ctx context.Context, location string, maxBytes int64) (string, error) {
	rc, err := o.Open(ctx, location)
	if err != nil {
		return "", err
	}
	defer rc.Close()

	text, err := csv.ReadText(rc, maxBytes)
	if err != nil {
		return "", fmt.Errorf("%s: %w", location, err)
	}
	return text, nil
}

// Locations names the three exports of one import. Empty media or content
// locations read as empty text.
type Locations struct {
	Products       string
	ProductMedia   string
	ManagedContent string
}

// Request reads all three exports concurrently and returns them as an
// import request.
func (o *Opener) Request(ctx context.Context, loc Locations, maxBytes int64) (core.ImportRequest, error) {
	var req core.ImportRequest
	if loc.Products == "" {
		return req, errors.New("no file provided: products location is required")
	}

	g, gctx := errgroup.WithContext(ctx)
	read := func(location string, into *string) {
		if location == "" {
			return
		}
		g.Go(func() error {
			text, err := o.ReadText(gctx, location, maxBytes)
			if err != nil {
				return err
			}
			*into = text
			return nil
		})
	}

	read(loc.Products, &req.Products)
	read(loc.ProductMedia, &req.ProductMedia)
	read(loc.ManagedContent, &req.ManagedContent)

	if err := g.Wait(); err != nil {
		return core.ImportRequest{}, err
	}
	return req, nil
}

func openFile(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return f, nil
}

func (o *Opener) openObject(ctx context.Context, location string) (io.ReadCloser, error) {
	if o.s3 == nil {
		return nil, ErrS3NotConfigured
	}

	bucket, key, err := parseS3(location)
	if err != nil {
		return nil, err
	}

	out, err := o.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("get object %s: %w", location, err)
	}
	return out.Body, nil
}

func parseS3(location string) (bucket, key string, err error) {
	u, err := url.Parse(location)
	if err != nil {
		return "", "", fmt.Errorf("parse s3 location: %w", err)
	}
	key = strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || key == "" {
		return "", "", fmt.Errorf("s3 location %q must be s3://bucket/key", location)
	}
	return u.Host, key, nil
}
