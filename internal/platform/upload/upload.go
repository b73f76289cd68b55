package upload

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/hassonapp/chatter/config"
)

// Result identifies a stored object: the public id and the version used to
// build the stored picture URL.
type Result struct {
	PublicID string
	Version  string
}

// Uploader stores raw image data under a caller-chosen public id.
// Signup aborts before any cache or queue work if this fails.
type Uploader interface {
	Upload(ctx context.Context, publicID string, dataURL string) (*Result, error)
}

// S3Uploader stores avatar images in an S3-compatible bucket.
type S3Uploader struct {
	logger *slog.Logger
	cfg    config.StorageConfig
	client *s3.Client
}

func NewS3Uploader(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (*S3Uploader, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return &S3Uploader{logger: logger, cfg: cfg, client: client}, nil
}

// Upload decodes the data URL and puts the object. The returned version is
// the bucket's object version when versioning is on, otherwise a timestamp,
// so picture URLs always change when the avatar does.
func (u *S3Uploader) Upload(ctx context.Context, publicID string, dataURL string) (*Result, error) {
	contentType, data, err := decodeDataURL(dataURL)
	if err != nil {
		return nil, fmt.Errorf("decode avatar image: %w", err)
	}

	out, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.cfg.Bucket),
		Key:         aws.String(publicID),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		u.logger.ErrorContext(ctx, "Avatar upload failed",
			slog.String("bucket", u.cfg.Bucket),
			slog.String("key", publicID),
			slog.Any("error", err),
		)
		return nil, fmt.Errorf("upload avatar: %w", err)
	}

	version := strconv.FormatInt(time.Now().Unix(), 10)
	if out.VersionId != nil && *out.VersionId != "" {
		version = *out.VersionId
	}
	return &Result{PublicID: publicID, Version: version}, nil
}

// PictureURL builds the public URL for a stored avatar.
func PictureURL(cfg config.StorageConfig, res *Result) string {
	return fmt.Sprintf("%s/v%s/%s", strings.TrimRight(cfg.BaseURL, "/"), res.Version, res.PublicID)
}

// decodeDataURL splits "data:<mediatype>;base64,<payload>" into content type
// and raw bytes.
func decodeDataURL(dataURL string) (string, []byte, error) {
	const prefix = "data:"
	if !strings.HasPrefix(dataURL, prefix) {
		return "", nil, fmt.Errorf("not a data URL")
	}
	meta, payload, ok := strings.Cut(dataURL[len(prefix):], ",")
	if !ok {
		return "", nil, fmt.Errorf("malformed data URL")
	}
	contentType := "application/octet-stream"
	if mt := strings.TrimSuffix(meta, ";base64"); mt != "" {
		contentType = mt
	}
	if !strings.HasSuffix(meta, ";base64") {
		return "", nil, fmt.Errorf("unsupported data URL encoding")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("decode base64 payload: %w", err)
	}
	return contentType, data, nil
}
