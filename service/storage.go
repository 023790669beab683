// file: service/storage.go

package service

import (
	"context"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
	"time"
	"vidtube-api/config"
	"vidtube-api/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// MediaKind selects the key prefix of an uploaded object.
type MediaKind string

const (
	MediaAvatar MediaKind = "avatars"
	MediaCover  MediaKind = "covers"
)

// Upload is a file received from a client, ready to be stored.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// MediaStorage stores uploaded media and returns its public URL. Delete takes
// a URL returned by Upload.
type MediaStorage interface {
	Upload(ctx context.Context, kind MediaKind, file *Upload) (string, error)
	Delete(ctx context.Context, url string) error
}

// S3ObjectAPI is the part of the S3 client used for media objects.
type S3ObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3MediaStorage writes media objects into an S3-compatible bucket.
type S3MediaStorage struct {
	client        S3ObjectAPI
	bucket        string
	publicBaseURL string
	now           func() time.Time
}

func NewS3MediaStorage(client S3ObjectAPI, bucket, publicBaseURL string) *S3MediaStorage {
	return &S3MediaStorage{
		client:        client,
		bucket:        bucket,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		now:           time.Now,
	}
}

// NewS3Client builds an S3 client with static credentials and an optional custom
// endpoint (MinIO and other S3-compatible stores).
func NewS3Client(ctx context.Context, cfg config.Config) (*s3.Client, error) {
	st := cfg.Storage
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(st.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(st.AccessKey, st.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load s3 config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if st.Endpoint != "" {
			o.BaseEndpoint = aws.String(st.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

func (s *S3MediaStorage) objectKey(kind MediaKind, filename string) string {
	d := s.now().UTC()
	ext := strings.ToLower(filepath.Ext(filename))
	return fmt.Sprintf("%s/%d/%02d/%s%s", kind, d.Year(), d.Month(), uuid.NewString(), ext)
}

func (s *S3MediaStorage) Upload(ctx context.Context, kind MediaKind, file *Upload) (string, error) {
	key := s.objectKey(kind, file.Filename)
	log := logger.Log.WithFields(logrus.Fields{
		"bucket": s.bucket,
		"key":    key,
		"size":   file.Size,
	})

	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   file.Body,
	}
	if file.ContentType != "" {
		input.ContentType = aws.String(file.ContentType)
	}
	if file.Size > 0 {
		input.ContentLength = aws.Int64(file.Size)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		log.WithError(err).Error("Failed to upload media object")
		return "", fmt.Errorf("failed to upload %s: %w", kind, err)
	}

	log.Info("Media object uploaded")
	return s.publicBaseURL + "/" + path.Clean(key), nil
}

func (s *S3MediaStorage) Delete(ctx context.Context, url string) error {
	key, ok := strings.CutPrefix(url, s.publicBaseURL+"/")
	if !ok || key == "" {
		return fmt.Errorf("url %q is outside bucket %s", url, s.bucket)
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}

	logger.Log.WithFields(logrus.Fields{"bucket": s.bucket, "key": key}).Info("Media object deleted")
	return nil
}
