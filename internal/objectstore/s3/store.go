// Package s3 implements objectstore.Store on top of an S3-compatible API.
package s3

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/abgdnv/catalog/internal/objectstore"
	"github.com/abgdnv/catalog/pkg/config"
	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

const requestTimeout = 30 * time.Second

// Store implements objectstore.Store using an S3-compatible service.
type Store struct {
	client    *s3.Client
	publicURL string
}

// New creates an S3-backed object store from the storage configuration.
// The SDK retryer is disabled: callers own the retry policy.
func New(ctx context.Context, cfg config.StorageConfig) (*Store, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
		awsconfig.WithRetryer(func() aws.Retryer { return aws.NopRetryer{} }),
		awsconfig.WithHTTPClient(awshttp.NewBuildableClient().WithTimeout(requestTimeout)),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		o.UsePathStyle = cfg.UsePathStyle
	})

	return &Store{
		client:    client,
		publicURL: strings.TrimRight(cfg.PublicURL, "/"),
	}, nil
}

// ListBuckets returns all buckets owned by the configured credentials.
func (s *Store) ListBuckets(ctx context.Context) ([]objectstore.Bucket, error) {
	var buckets []objectstore.Bucket
	paginator := s3.NewListBucketsPaginator(s.client, &s3.ListBucketsInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("s3 list buckets: %w", err)
		}
		for _, b := range page.Buckets {
			buckets = append(buckets, objectstore.Bucket{Name: aws.ToString(b.Name)})
		}
	}
	return buckets, nil
}

// CreateBucket creates the bucket and, when public is set, attaches an anonymous read policy.
func (s *Store) CreateBucket(ctx context.Context, name string, public bool) (objectstore.CreateOutcome, error) {
	_, err := s.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(name)})
	if err != nil {
		if isAlreadyExists(err) {
			return objectstore.AlreadyExists, nil
		}
		return objectstore.CreateFailed, fmt.Errorf("s3 create bucket %s: %w", name, err)
	}
	if public {
		if err := s.applyPublicReadPolicy(ctx, name); err != nil {
			return objectstore.CreateFailed, err
		}
	}
	return objectstore.Created, nil
}

// Upload stores the object. Without Upsert the write is conditional on the key being absent.
func (s *Store) Upload(ctx context.Context, in objectstore.UploadInput) (string, error) {
	input := &s3.PutObjectInput{
		Bucket:        aws.String(in.Bucket),
		Key:           aws.String(in.Path),
		Body:          bytes.NewReader(in.Body),
		ContentLength: aws.Int64(int64(len(in.Body))),
		ContentType:   aws.String(in.ContentType),
	}
	if !in.Upsert {
		input.IfNoneMatch = aws.String("*")
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("s3 put object bucket=%s key=%s: %w", in.Bucket, in.Path, err)
	}
	return in.Path, nil
}

// PublicURL returns <public base>/<bucket>/<path>.
func (s *Store) PublicURL(bucket, path string) string {
	return s.publicURL + "/" + bucket + "/" + strings.TrimLeft(path, "/")
}

func (s *Store) applyPublicReadPolicy(ctx context.Context, bucket string) error {
	policy, err := publicReadPolicy(bucket)
	if err != nil {
		return err
	}
	_, err = s.client.PutBucketPolicy(ctx, &s3.PutBucketPolicyInput{
		Bucket: aws.String(bucket),
		Policy: aws.String(policy),
	})
	if err != nil {
		return fmt.Errorf("s3 put bucket policy %s: %w", bucket, err)
	}
	return nil
}

type policyStatement struct {
	Effect    string   `json:"Effect"`
	Principal string   `json:"Principal"`
	Action    []string `json:"Action"`
	Resource  []string `json:"Resource"`
}

type policyDocument struct {
	Version   string            `json:"Version"`
	Statement []policyStatement `json:"Statement"`
}

func publicReadPolicy(bucket string) (string, error) {
	doc := policyDocument{
		Version: "2012-10-17",
		Statement: []policyStatement{{
			Effect:    "Allow",
			Principal: "*",
			Action:    []string{"s3:GetObject"},
			Resource:  []string{"arn:aws:s3:::" + bucket + "/*"},
		}},
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("encode bucket policy: %w", err)
	}
	return string(raw), nil
}

// isAlreadyExists reports whether a create failure means the bucket is already there.
func isAlreadyExists(err error) bool {
	var owned *s3types.BucketAlreadyOwnedByYou
	if errors.As(err, &owned) {
		return true
	}
	var exists *s3types.BucketAlreadyExists
	if errors.As(err, &exists) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "BucketAlreadyOwnedByYou", "BucketAlreadyExists":
			return true
		}
	}
	return false
}

var _ objectstore.Store = (*Store)(nil)
