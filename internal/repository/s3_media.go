package repository

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	appConfig "github.com/onlytraining/trainsync/internal/config"
)

// S3MediaStore implements domain.MediaStore against any S3-compatible store
// (SeaweedFS, MinIO, AWS). It holds the exercise demo videos referenced by
// workout items' video_url.
type S3MediaStore struct {
	client    *s3.Client
	bucket    string
	publicURL string
}

func NewS3MediaStore(ctx context.Context, cfg appConfig.S3Config) (*S3MediaStore, error) {
	// Static credentials keep signing happy on self-hosted stores that do not
	// validate them.
	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config, %v", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		o.UsePathStyle = true // required by most S3-compatible stores
	})

	store := &S3MediaStore{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: cfg.Endpoint,
	}

	if err := store.ensureBucket(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

// Upload stores a demo video under videos/ and returns its public URL.
func (r *S3MediaStore) Upload(ctx context.Context, data []byte, filename, contentType string) (string, error) {
	key := path.Join("videos", filename)

	_, err := r.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(r.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload media to S3: %w", err)
	}

	return fmt.Sprintf("%s/%s/%s", r.publicURL, r.bucket, key), nil
}

func (r *S3MediaStore) ensureBucket(ctx context.Context) error {
	_, err := r.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(r.bucket),
	})
	if err != nil {
		_, err = r.client.CreateBucket(ctx, &s3.CreateBucketInput{
			Bucket: aws.String(r.bucket),
		})
		if err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", r.bucket, err)
		}
	}
	return nil
}
