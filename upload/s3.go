package upload

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3 uploads to an S3-compatible bucket.
type S3 struct {
	client    *s3.Client
	bucket    string
	publicURL string
}

// NewS3 creates an S3 uploader. If endpoint is non-empty, path-style
// addressing is enabled (for MinIO and similar). publicURL overrides the
// default virtual-hosted URL of uploaded objects, e.g. for a CDN.
func NewS3(ctx context.Context, bucket, region, endpoint, publicURL string) (*S3, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	var s3opts []func(*s3.Options)
	if endpoint != "" {
		s3opts = append(s3opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		})
	}

	if publicURL == "" {
		publicURL = defaultPublicURL(bucket, region, endpoint)
	}

	return &S3{
		client:    s3.NewFromConfig(cfg, s3opts...),
		bucket:    bucket,
		publicURL: publicURL,
	}, nil
}

func defaultPublicURL(bucket, region, endpoint string) string {
	if endpoint != "" {
		return endpoint + "/" + bucket
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, region)
}

func (u *S3) Upload(ctx context.Context, folder, filename, contentType string, body io.Reader) (string, error) {
	key, err := objectKey(folder, filename)
	if err != nil {
		return "", err
	}

	_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("s3 put object: %w", err)
	}
	return u.publicURL + "/" + key, nil
}
