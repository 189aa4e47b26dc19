// Package storage uploads and removes objects (avatars, QR codes) in an S3 bucket.
package storage

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"

	"github.com/rollcall-admin/rollcall/internal/apperr"
	"github.com/rollcall-admin/rollcall/internal/awscfg"
	"github.com/rollcall-admin/rollcall/internal/config"
)

const (
	// UserKeyPrefix prefixes every staff object key.
	UserKeyPrefix = "staff"
	// PersonKeyPrefix prefixes every person object key.
	PersonKeyPrefix = "person"
)

// ObjectAPI is the part of the S3 client used by S3.
type ObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Uploader stores and removes objects by key.
type Uploader interface {
	Put(ctx context.Context, key string, body io.Reader, contentType string) error
	PutFile(ctx context.Context, key, path, contentType string) error
	Delete(ctx context.Context, key string) error
}

// S3 handles object storage operations on one bucket.
type S3 struct {
	client ObjectAPI
	bucket string
}

// NewS3 wraps an S3 client.
func NewS3(client ObjectAPI, bucket string) *S3 {
	return &S3{client: client, bucket: bucket}
}

// New creates an S3 store from the configuration.
func New(ctx context.Context, cfg *config.Storage) (*S3, error) {
	awsConfig, err := awscfg.Load(ctx, cfg.Region, cfg.AccessKey, cfg.SecretKey)
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return NewS3(client, cfg.Bucket), nil
}

// AvatarKey is the object key of a user's avatar.
func AvatarKey(username string) string {
	return UserKeyPrefix + "/" + username + "/avatar"
}

// QRKey is the object key of a person's QR image with extension ext (png or svg).
func QRKey(personID, ext string) string {
	return PersonKeyPrefix + "/" + personID + "/" + personID + "." + ext
}

// Put uploads body under key.
func (s *S3) Put(ctx context.Context, key string, body io.Reader, contentType string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("%w: failed to upload %s: %v", apperr.ErrUpstream, key, err) //nolint: errorlint
	}

	log.Debug().Str("bucket", s.bucket).Str("key", key).Msg("uploaded object")

	return nil
}

// PutFile uploads the local file at path under key.
func (s *S3) PutFile(ctx context.Context, key, path, contentType string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	return s.Put(ctx, key, f, contentType)
}

// Delete removes the object under key. Missing objects are not an error.
func (s *S3) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("%w: failed to delete %s: %v", apperr.ErrUpstream, key, err) //nolint: errorlint
	}

	log.Debug().Str("bucket", s.bucket).Str("key", key).Msg("deleted object")

	return nil
}
