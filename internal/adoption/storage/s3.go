// Package storage keeps uploaded documents in S3 and hands out presigned
// download links, cached in Redis until shortly before they expire.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	awsclient "adoption-review/internal/common/aws"
	apperrors "adoption-review/internal/common/errors"
	"adoption-review/internal/common/logger"
	"adoption-review/internal/models"
)

const (
	// MaxUploadSize bounds a single stored file.
	MaxUploadSize = 10 << 20

	// DefaultURLTTL is the lifetime of a presigned link when none is given.
	DefaultURLTTL = 7 * 24 * time.Hour

	// cacheMargin is how long before expiry a cached link stops being served.
	cacheMargin = time.Hour

	maxFileNameLength = 100
)

var allowedContentTypes = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/png":       true,
	"image/webp":      true,
	"image/heic":      true,
}

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Config configures S3Storage.
type Config struct {
	Bucket      string
	CachePrefix string
	DefaultTTL  time.Duration
}

// S3Storage is the document store backed by an S3 bucket.
type S3Storage struct {
	api       awsclient.S3API
	presigner awsclient.S3Presigner
	cache     redis.Cmdable
	cfg       Config
	logger    logger.Logger
	now       func() time.Time
}

// NewS3Storage returns a store writing to cfg.Bucket. cache may be nil, in
// which case every URL request is signed afresh.
func NewS3Storage(api awsclient.S3API, presigner awsclient.S3Presigner, cache redis.Cmdable, cfg Config, log logger.Logger) *S3Storage {
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = DefaultURLTTL
	}
	if cfg.CachePrefix == "" {
		cfg.CachePrefix = "adoption:presigned:"
	}
	return &S3Storage{
		api:       api,
		presigner: presigner,
		cache:     cache,
		cfg:       cfg,
		logger:    log.WithFields(map[string]interface{}{"component": "document-storage"}),
		now:       time.Now,
	}
}

// Store uploads u under category and returns its object key.
func (s *S3Storage) Store(ctx context.Context, category string, u models.Upload) (string, error) {
	contentType, err := validateUpload(u)
	if err != nil {
		return "", err
	}

	key := s.objectKey(category, u.FileName)
	_, err = s.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(s.cfg.Bucket),
		Key:          aws.String(key),
		Body:         bytes.NewReader(u.Data),
		ContentType:  aws.String(contentType),
		CacheControl: aws.String("max-age=31536000"),
	})
	if err != nil {
		return "", apperrors.NewStorageFailedError("put object", err)
	}

	s.logger.Info("document stored", map[string]interface{}{
		"key":  key,
		"size": u.Size(),
	})
	return key, nil
}

// Delete removes a stored object. It is used to clean up after a failed
// transaction.
func (s *S3Storage) Delete(ctx context.Context, key string) error {
	_, err := s.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return apperrors.NewStorageFailedError("delete object", err)
	}
	s.evict(ctx, key)
	return nil
}

// evict drops every cached link of key, whatever lifetime it was signed for.
func (s *S3Storage) evict(ctx context.Context, key string) {
	if s.cache == nil {
		return
	}
	index := s.indexKey(key)
	cached, err := s.cache.SMembers(ctx, index).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		s.logger.Warn("presigned url index read failed", map[string]interface{}{"key": key, "error": err.Error()})
	}
	if err := s.cache.Del(ctx, append(cached, index)...).Err(); err != nil {
		s.logger.Warn("presigned url cache eviction failed", map[string]interface{}{"key": key, "error": err.Error()})
	}
}

// URL returns a presigned GET link for key valid for ttl.
func (s *S3Storage) URL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", apperrors.NewValidationError("storage key is required")
	}
	if ttl <= 0 {
		ttl = s.cfg.DefaultTTL
	}

	cacheKey := s.cacheKey(key, ttl)
	if s.cache != nil {
		url, err := s.cache.Get(ctx, cacheKey).Result()
		switch {
		case err == nil && url != "":
			return url, nil
		case err != nil && !errors.Is(err, redis.Nil):
			s.logger.Warn("presigned url cache read failed", map[string]interface{}{"key": key, "error": err.Error()})
		}
	}

	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", apperrors.NewStorageFailedError("presign object", err)
	}

	if cacheFor := ttl - cacheMargin; s.cache != nil && cacheFor > 0 {
		if err := s.cache.Set(ctx, cacheKey, req.URL, cacheFor).Err(); err != nil {
			s.logger.Warn("presigned url cache write failed", map[string]interface{}{"key": key, "error": err.Error()})
		} else {
			s.track(ctx, key, cacheKey, cacheFor)
		}
	}
	return req.URL, nil
}

func (s *S3Storage) cacheKey(key string, ttl time.Duration) string {
	return fmt.Sprintf("%s%d:%s", s.cfg.CachePrefix, int64(ttl/time.Second), key)
}

func (s *S3Storage) indexKey(key string) string {
	return s.cfg.CachePrefix + "index:" + key
}

// track remembers cacheKey under the object's index so Delete can find it.
func (s *S3Storage) track(ctx context.Context, key, cacheKey string, cacheFor time.Duration) {
	index := s.indexKey(key)
	keep := cacheFor
	if s.cfg.DefaultTTL > keep {
		keep = s.cfg.DefaultTTL
	}
	err := s.cache.SAdd(ctx, index, cacheKey).Err()
	if err == nil {
		err = s.cache.Expire(ctx, index, keep).Err()
	}
	if err != nil {
		s.logger.Warn("presigned url index write failed", map[string]interface{}{"key": key, "error": err.Error()})
	}
}

// objectKey lays files out as <category>/<YYYY>/<MM>/<DD>/<uuid>_<name>.
func (s *S3Storage) objectKey(category, fileName string) string {
	if category == "" {
		category = "misc"
	}
	return path.Join(
		category,
		s.now().UTC().Format("2006/01/02"),
		uuid.New().String()+"_"+SanitizeFileName(fileName),
	)
}

// SanitizeFileName keeps letters, digits, dot, dash and underscore.
func SanitizeFileName(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	name = unsafeFileChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._")
	if name == "" {
		return "file"
	}
	if len(name) > maxFileNameLength {
		ext := path.Ext(name)
		if len(ext) > 10 {
			ext = ""
		}
		name = name[:maxFileNameLength-len(ext)] + ext
	}
	return name
}

func validateUpload(u models.Upload) (string, error) {
	if len(u.Data) == 0 {
		return "", apperrors.NewValidationError("uploaded file is empty")
	}
	if len(u.Data) > MaxUploadSize {
		return "", apperrors.NewValidationError(fmt.Sprintf("uploaded file exceeds %d bytes", MaxUploadSize))
	}

	contentType := strings.ToLower(strings.TrimSpace(u.ContentType))
	if i := strings.Index(contentType, ";"); i >= 0 {
		contentType = strings.TrimSpace(contentType[:i])
	}
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = strings.SplitN(http.DetectContentType(u.Data), ";", 2)[0]
	}
	if !allowedContentTypes[contentType] {
		return "", apperrors.NewValidationError(fmt.Sprintf("file type %q is not allowed", contentType))
	}
	return contentType, nil
}
