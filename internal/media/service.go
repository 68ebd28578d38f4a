package media

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"path"
	"strings"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/multierr"
)

// ObjectStore is the blob backend; pkg/storage/gcs satisfies it.
type ObjectStore interface {
	Upload(ctx context.Context, object, contentType string, body io.Reader) (string, error)
	Delete(ctx context.Context, object string) error
	ObjectFromURL(raw string) (string, bool)
}

// Uploader turns multipart image files into public URLs.
type Uploader interface {
	UploadImages(ctx context.Context, files []*multipart.FileHeader) ([]string, error)
	DeleteImages(ctx context.Context, urls []string) error
}

type Service struct {
	store    ObjectStore
	logg     *logger.Logger
	prefix   string
	allowed  []string
	maxFiles int
}

// NewService builds the uploader. A nil store is allowed: uploads then fail
// with a dependency error while requests without files keep working.
func NewService(store ObjectStore, cfg config.MediaConfig, prefix string, logg *logger.Logger) (*Service, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	allowed := make([]string, 0, len(cfg.AllowedTypes))
	for _, t := range cfg.AllowedTypes {
		if t = strings.TrimSpace(t); t != "" {
			allowed = append(allowed, t)
		}
	}
	if len(allowed) == 0 {
		return nil, fmt.Errorf("at least one allowed media type is required")
	}
	maxFiles := cfg.MaxFiles
	if maxFiles <= 0 {
		maxFiles = 10
	}
	return &Service{
		store:    store,
		logg:     logg,
		prefix:   strings.Trim(prefix, "/"),
		allowed:  allowed,
		maxFiles: maxFiles,
	}, nil
}

// UploadImages stores files one by one. If any file fails, every object
// already written by this call is deleted before the error is returned.
func (s *Service) UploadImages(ctx context.Context, files []*multipart.FileHeader) ([]string, error) {
	if len(files) == 0 {
		return nil, nil
	}
	if s.store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "media storage unavailable")
	}
	if len(files) > s.maxFiles {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("at most %d images per request", s.maxFiles))
	}

	urls := make([]string, 0, len(files))
	objects := make([]string, 0, len(files))
	for _, fh := range files {
		object, url, err := s.uploadOne(ctx, fh)
		if err != nil {
			if cleanupErr := s.rollback(ctx, objects); cleanupErr != nil {
				s.logg.Error(ctx, "media.rollback_failed", cleanupErr)
				err = multierr.Append(err, cleanupErr)
			}
			return nil, err
		}
		objects = append(objects, object)
		urls = append(urls, url)
	}
	return urls, nil
}

// DeleteImages removes objects behind urls this bucket served. Foreign URLs
// are skipped.
func (s *Service) DeleteImages(ctx context.Context, urls []string) error {
	if s.store == nil || len(urls) == 0 {
		return nil
	}
	objects := make([]string, 0, len(urls))
	for _, raw := range urls {
		if object, ok := s.store.ObjectFromURL(raw); ok {
			objects = append(objects, object)
		}
	}
	return s.rollback(ctx, objects)
}

func (s *Service) uploadOne(ctx context.Context, fh *multipart.FileHeader) (string, string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unreadable upload "+fh.Filename)
	}
	defer f.Close()

	detected, err := mimetype.DetectReader(f)
	if err != nil {
		return "", "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unreadable upload "+fh.Filename)
	}
	if !s.isAllowed(detected) {
		return "", "", pkgerrors.New(pkgerrors.CodeValidation, "unsupported media type").
			WithDetails(map[string]any{"file": fh.Filename, "mime_type": detected.String(), "allowed": s.allowed})
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "rewind upload")
	}

	object := path.Join(s.prefix, uuid.NewString()+detected.Extension())
	url, err := s.store.Upload(ctx, object, detected.String(), f)
	if err != nil {
		return "", "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upload image")
	}
	return object, url, nil
}

func (s *Service) isAllowed(detected *mimetype.MIME) bool {
	for _, t := range s.allowed {
		if detected.Is(t) {
			return true
		}
	}
	return false
}

func (s *Service) rollback(ctx context.Context, objects []string) error {
	var errs error
	for _, object := range objects {
		errs = multierr.Append(errs, s.store.Delete(ctx, object))
	}
	return errs
}
