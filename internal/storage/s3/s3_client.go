// Package s3 fetches invoice documents addressed by s3://bucket/key URLs.
package s3

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"billscan/internal/domain"
	"billscan/internal/port"
)

// Config holds S3 connection settings.
type Config struct {
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	// MaxDocumentBytes caps how large a fetched object may be; zero means
	// no cap.
	MaxDocumentBytes int64
}

type s3Fetcher struct {
	client     *s3.Client
	downloader *manager.Downloader
	maxBytes   int64
}

// NewFetcher creates an S3-backed DocumentFetcher for s3://bucket/key URLs.
func NewFetcher(cfg Config) (port.DocumentFetcher, error) {
	var opts []func(*awsconfig.LoadOptions) error
	opts = append(opts, awsconfig.WithRegion(cfg.Region))

	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}

	client := s3.NewFromConfig(awsCfg, s3Opts...)
	return &s3Fetcher{
		client:     client,
		downloader: manager.NewDownloader(client),
		maxBytes:   cfg.MaxDocumentBytes,
	}, nil
}

// Fetch downloads the object named by an s3://bucket/key URL. Objects
// larger than the configured cap return domain.ErrDocumentTooLarge before
// any data transfer.
func (f *s3Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	bucket, key, err := parseURL(url)
	if err != nil {
		return nil, err
	}

	if f.maxBytes > 0 {
		head, err := f.client.HeadObject(ctx, &s3.HeadObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			return nil, fmt.Errorf("s3 head %s: %w", url, domain.ErrDownloadFailed)
		}
		if head.ContentLength != nil && *head.ContentLength > f.maxBytes {
			return nil, domain.ErrDocumentTooLarge
		}
	}

	buf := manager.NewWriteAtBuffer(nil)
	_, err = f.downloader.Download(ctx, buf, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, domain.ErrDownloadTimeout
		}
		return nil, fmt.Errorf("s3 download %s: %w", url, domain.ErrDownloadFailed)
	}
	return buf.Bytes(), nil
}

func parseURL(url string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(url, "s3://")
	if !ok {
		return "", "", domain.ErrUnsupportedScheme
	}
	bucket, key, ok = strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("malformed s3 url %q: %w", url, domain.ErrUnsupportedScheme)
	}
	return bucket, key, nil
}
