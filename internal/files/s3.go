package files

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/minio/minio-go/v7"

	apperrors "github.com/botmakerhq/hostbot/internal/errors"
)

// S3Store keeps per-user files in an S3-compatible bucket, one prefix per
// user. Isolation between users is by key prefix; the bucket itself must not
// be publicly listable.
type S3Store struct {
	client *minio.Client
	bucket string
	policy Policy
	log    *slog.Logger
}

// NewS3Store creates an object-store backed Store. The bucket must already
// exist; deployments manage bucket lifecycle outside the bot.
func NewS3Store(client *minio.Client, bucket string, policy Policy, log *slog.Logger) (*S3Store, error) {
	if log == nil {
		log = slog.Default()
	}

	exists, err := client.BucketExists(context.Background(), bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("bucket %q does not exist", bucket)
	}

	return &S3Store{
		client: client,
		bucket: bucket,
		policy: policy,
		log:    log,
	}, nil
}

// List returns the user's objects ordered by name.
func (s *S3Store) List(ctx context.Context, userID int64) ([]FileInfo, error) {
	prefix := s.userPrefix(userID)

	result := make([]FileInfo, 0)
	for object := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if object.Err != nil {
			s.log.Error("failed to list objects", slog.Int64("user_id", userID), slog.Any("error", object.Err))
			return nil, apperrors.NewStorageError(object.Err)
		}

		result = append(result, FileInfo{
			Name:    strings.TrimPrefix(object.Key, prefix),
			Size:    object.Size,
			ModTime: object.LastModified,
		})
	}

	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })

	return result, nil
}

// Exists reports whether the named object is present under the user prefix.
func (s *S3Store) Exists(ctx context.Context, userID int64, name string) (bool, error) {
	if !validName(name) {
		return false, nil
	}

	_, err := s.client.StatObject(ctx, s.bucket, s.objectKey(userID, name), minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return false, nil
		}

		return false, apperrors.NewStorageError(err)
	}

	return true, nil
}

// Save enforces quota, size and collision policy, then uploads the object.
func (s *S3Store) Save(ctx context.Context, userID int64, name string, content []byte) error {
	if !validName(name) {
		return apperrors.NewValidationError("missing or invalid filename.")
	}

	count, err := s.Count(ctx, userID)
	if err != nil {
		return err
	}
	if count >= s.policy.MaxFiles {
		return apperrors.NewQuotaExceededError(s.policy.MaxFiles)
	}

	if int64(len(content)) > s.policy.MaxFileSize {
		return apperrors.NewTooLargeError(FormatBytes(s.policy.MaxFileSize, 2))
	}

	exists, err := s.Exists(ctx, userID, name)
	if err != nil {
		return err
	}
	if exists {
		return apperrors.NewNameConflictError(name)
	}

	_, err = s.client.PutObject(
		ctx,
		s.bucket,
		s.objectKey(userID, name),
		bytes.NewReader(content),
		int64(len(content)),
		minio.PutObjectOptions{ContentType: "application/octet-stream"},
	)
	if err != nil {
		s.log.Error("failed to upload object", slog.Int64("user_id", userID), slog.String("name", name), slog.Any("error", err))
		return apperrors.NewStorageError(err)
	}

	return nil
}

// Delete removes the named object.
func (s *S3Store) Delete(ctx context.Context, userID int64, name string) error {
	exists, err := s.Exists(ctx, userID, name)
	if err != nil {
		return err
	}
	if !exists {
		return apperrors.NewNotFoundError(name)
	}

	if err := s.client.RemoveObject(ctx, s.bucket, s.objectKey(userID, name), minio.RemoveObjectOptions{}); err != nil {
		s.log.Error("failed to remove object", slog.Int64("user_id", userID), slog.String("name", name), slog.Any("error", err))
		return apperrors.NewStorageError(err)
	}

	return nil
}

// Count returns the user's current object count.
func (s *S3Store) Count(ctx context.Context, userID int64) (int, error) {
	list, err := s.List(ctx, userID)
	if err != nil {
		return 0, err
	}

	return len(list), nil
}

// HealthCheck verifies that the bucket is reachable.
func (s *S3Store) HealthCheck(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("bucket %q does not exist", s.bucket)
	}

	return nil
}

func (s *S3Store) userPrefix(userID int64) string {
	return fmt.Sprintf("%d/", userID)
}

func (s *S3Store) objectKey(userID int64, name string) string {
	return s.userPrefix(userID) + name
}
