package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/moveout-labs/moveout-backend/internal/observability"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const (
	maxMediaSize    = 10 * 1024 * 1024 // 10 MB
	presignedURLTTL = 15 * time.Minute
	mediaPathPrefix = "media"
)

var (
	ErrFileTooBig           = errors.New("file size exceeds 10MB limit")
	ErrInvalidFileType      = errors.New("unsupported file type")
	ErrBucketCreationFailed = errors.New("failed to create storage bucket")
	ErrUploadFailed         = errors.New("failed to upload file")
	ErrDeleteFailed         = errors.New("failed to delete file")
	ErrURLGenerationFailed  = errors.New("failed to generate presigned URL")
	ErrUnauthorizedAccess   = errors.New("unauthorized access to resource")

	allowedMediaTypes = map[string]string{
		"image/jpeg":      ".jpg",
		"image/png":       ".png",
		"audio/mpeg":      ".mp3",
		"audio/wave":      ".wav",
		"application/pdf": ".pdf",
	}
)

// StorageService stores box media (label designs, photos, audio messages,
// documents) and supports purging everything a user owns when the account is
// deleted.
type StorageService interface {
	// UploadBoxMedia stores a media object under the owner's namespace and
	// returns the object key.
	UploadBoxMedia(ctx context.Context, userID uint, file io.Reader, fileSize int64, contentType string) (string, error)

	// DeleteObject removes a single object after checking the key belongs
	// to the given owner.
	DeleteObject(ctx context.Context, userID uint, objectKey string) error

	// GenerateObjectURL returns a short-lived presigned GET URL.
	GenerateObjectURL(ctx context.Context, objectKey string) (string, error)

	// DeleteUserObjects removes every object under the owner's namespace.
	// Best-effort: returns how many objects were removed together with any
	// accumulated error.
	DeleteUserObjects(ctx context.Context, userID uint) (int64, error)
}

// MinIOStorageService implements StorageService on MinIO/S3-compatible
// storage. Bucket creation is deferred to first use so startup never blocks
// on the object store.
type MinIOStorageService struct {
	client     *minio.Client
	bucketName string
	initOnce   sync.Once
	initErr    error
}

func NewMinIOStorageService(endpoint, accessKey, secretKey, bucketName string, useSSL bool) (*MinIOStorageService, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return &MinIOStorageService{client: client, bucketName: bucketName}, nil
}

func (s *MinIOStorageService) lazyInit(ctx context.Context) error {
	s.initOnce.Do(func() {
		s.initErr = s.ensureBucketExists(ctx)
	})
	return s.initErr
}

func (s *MinIOStorageService) ensureBucketExists(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucketName)
	if err != nil {
		return fmt.Errorf("%w: check bucket existence: %v", ErrBucketCreationFailed, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucketName, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("%w: create bucket: %v", ErrBucketCreationFailed, err)
		}
	}
	return nil
}

func ownerPrefix(userID uint) string {
	return fmt.Sprintf("%s/user-%d/", mediaPathPrefix, userID)
}

func (s *MinIOStorageService) UploadBoxMedia(ctx context.Context, userID uint, file io.Reader, fileSize int64, contentType string) (string, error) {
	if fileSize > maxMediaSize {
		return "", ErrFileTooBig
	}

	// Sniff the real content type from the leading bytes so a client
	// supplied header cannot smuggle an unexpected format.
	buf := make([]byte, 512)
	n, err := io.ReadFull(file, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", fmt.Errorf("%w: read file for content detection: %v", ErrUploadFailed, err)
	}
	buf = buf[:n]

	detected := strings.ToLower(strings.TrimSpace(http.DetectContentType(buf)))
	if i := strings.Index(detected, ";"); i >= 0 {
		detected = strings.TrimSpace(detected[:i])
	}
	ext, allowed := allowedMediaTypes[detected]
	if !allowed {
		observability.RecordStorageOperation(ctx, "upload", "rejected")
		return "", ErrInvalidFileType
	}

	if err := s.lazyInit(ctx); err != nil {
		return "", err
	}

	fullFile := io.MultiReader(bytes.NewReader(buf), file)
	objectKey := ownerPrefix(userID) + uuid.New().String() + ext

	_, err = s.client.PutObject(ctx, s.bucketName, objectKey, fullFile, fileSize, minio.PutObjectOptions{
		ContentType: detected,
		UserMetadata: map[string]string{
			"User-ID":     fmt.Sprintf("%d", userID),
			"Uploaded-At": time.Now().UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		observability.RecordStorageOperation(ctx, "upload", "error")
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	observability.RecordStorageOperation(ctx, "upload", "success")
	return objectKey, nil
}

func (s *MinIOStorageService) DeleteObject(ctx context.Context, userID uint, objectKey string) error {
	if strings.TrimSpace(objectKey) == "" {
		return nil
	}
	if strings.Contains(objectKey, "..") {
		return ErrUnauthorizedAccess
	}
	if !strings.HasPrefix(objectKey, ownerPrefix(userID)) {
		return ErrUnauthorizedAccess
	}
	if err := s.lazyInit(ctx); err != nil {
		return err
	}
	if err := s.client.RemoveObject(ctx, s.bucketName, objectKey, minio.RemoveObjectOptions{}); err != nil {
		observability.RecordStorageOperation(ctx, "delete", "error")
		return fmt.Errorf("%w: %v", ErrDeleteFailed, err)
	}
	observability.RecordStorageOperation(ctx, "delete", "success")
	return nil
}

func (s *MinIOStorageService) GenerateObjectURL(ctx context.Context, objectKey string) (string, error) {
	if strings.TrimSpace(objectKey) == "" {
		return "", fmt.Errorf("%w: empty object key", ErrURLGenerationFailed)
	}
	if err := s.lazyInit(ctx); err != nil {
		return "", err
	}
	presignedURL, err := s.client.PresignedGetObject(ctx, s.bucketName, objectKey, presignedURLTTL, url.Values{})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrURLGenerationFailed, err)
	}
	return presignedURL.String(), nil
}

func (s *MinIOStorageService) DeleteUserObjects(ctx context.Context, userID uint) (int64, error) {
	if err := s.lazyInit(ctx); err != nil {
		return 0, err
	}

	var removed int64
	var errs []error
	prefix := ownerPrefix(userID)
	for object := range s.client.ListObjects(ctx, s.bucketName, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if object.Err != nil {
			errs = append(errs, object.Err)
			continue
		}
		if err := s.client.RemoveObject(ctx, s.bucketName, object.Key, minio.RemoveObjectOptions{}); err != nil {
			errs = append(errs, fmt.Errorf("remove %s: %w", object.Key, err))
			continue
		}
		removed++
	}
	if len(errs) > 0 {
		observability.RecordStorageOperation(ctx, "purge", "partial")
		return removed, fmt.Errorf("%w: %v", ErrDeleteFailed, errors.Join(errs...))
	}
	observability.RecordStorageOperation(ctx, "purge", "success")
	return removed, nil
}
