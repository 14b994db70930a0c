package service

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// ImageStore keeps profile images for authors and users.
type ImageStore interface {
	// Put stores the image under prefix and returns its public URL.
	Put(ctx context.Context, prefix, filename string, body io.Reader, contentType string) (string, error)
	// Remove deletes an image previously returned by Put. URLs that were not
	// produced by this store are ignored.
	Remove(ctx context.Context, url string) error
}

// S3Images is the S3-backed ImageStore.
type S3Images struct {
	client     *s3.Client
	bucket     string
	publicBase string
}

// NewS3Images builds the client from the default AWS chain, preferring
// static credentials when both halves are set. publicBase defaults to the
// bucket's virtual-hosted URL.
func NewS3Images(ctx context.Context, bucket, region, accessKeyID, secretAccessKey, publicBase string) (*S3Images, error) {
	if bucket == "" {
		return nil, fmt.Errorf("AWS_S3_BUCKET is required")
	}
	opts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if accessKeyID != "" && secretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKeyID, secretAccessKey, ""),
		))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}
	if publicBase == "" {
		publicBase = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, region)
	}
	return &S3Images{
		client:     s3.NewFromConfig(cfg),
		bucket:     bucket,
		publicBase: strings.TrimRight(publicBase, "/"),
	}, nil
}

// ObjectKey builds "<prefix><uuid><ext>" with the extension lowercased.
func ObjectKey(prefix, filename string) string {
	return prefix + uuid.New().String() + strings.ToLower(filepath.Ext(filename))
}

func (s *S3Images) Put(ctx context.Context, prefix, filename string, body io.Reader, contentType string) (string, error) {
	key := ObjectKey(prefix, filename)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("put %s: %w", key, err)
	}
	return s.publicBase + "/" + key, nil
}

func (s *S3Images) Remove(ctx context.Context, url string) error {
	key, ok := strings.CutPrefix(url, s.publicBase+"/")
	if !ok || key == "" {
		return nil
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	return err
}
