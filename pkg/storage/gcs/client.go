package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"google.golang.org/api/option"
)

const (
	pingTimeout  = 5 * time.Second
	cacheControl = "public, max-age=31536000"
)

// Client stores product images in a single bucket and hands back public URLs.
type Client struct {
	client        *storage.Client
	bucket        string
	publicBaseURL string
}

type Pinger interface {
	Ping(ctx context.Context) error
}

func NewClient(ctx context.Context, cfg config.GCSConfig, gcp config.GCPConfig, logg *logger.Logger) (*Client, error) {
	if !cfg.Enabled() {
		return nil, errors.New("gcs bucket name is required")
	}

	var opts []option.ClientOption
	switch {
	case gcp.CredentialsJSON != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(gcp.CredentialsJSON)))
	case gcp.ApplicationCredentials != "":
		opts = append(opts, option.WithCredentialsFile(gcp.ApplicationCredentials))
	}

	sc, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating gcs client: %w", err)
	}

	c := &Client{
		client:        sc,
		bucket:        strings.TrimSpace(cfg.BucketName),
		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
	}
	if logg != nil {
		logg.Info(logg.WithField(ctx, "bucket", c.bucket), "gcs client ready")
	}
	return c, nil
}

// Upload streams body into object and returns its public URL.
func (c *Client) Upload(ctx context.Context, object, contentType string, body io.Reader) (string, error) {
	object = strings.TrimLeft(strings.TrimSpace(object), "/")
	if object == "" {
		return "", errors.New("object name is required")
	}

	w := c.client.Bucket(c.bucket).Object(object).NewWriter(ctx)
	w.ContentType = contentType
	w.CacheControl = cacheControl

	if _, err := io.Copy(w, body); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("write object %s: %w", object, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalize object %s: %w", object, err)
	}
	return c.PublicURL(object), nil
}

// Delete removes object. Missing objects are not an error.
func (c *Client) Delete(ctx context.Context, object string) error {
	err := c.client.Bucket(c.bucket).Object(object).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("delete object %s: %w", object, err)
	}
	return nil
}

// Ping checks the bucket is reachable with the configured credentials.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if _, err := c.client.Bucket(c.bucket).Attrs(ctx); err != nil {
		return fmt.Errorf("gcs bucket attrs: %w", err)
	}
	return nil
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// PublicURL builds the public address of object.
func (c *Client) PublicURL(object string) string {
	return publicURL(c.publicBaseURL, c.bucket, object)
}

// ObjectFromURL recovers the object name from a URL minted by PublicURL.
func (c *Client) ObjectFromURL(raw string) (string, bool) {
	return objectFromURL(c.publicBaseURL, c.bucket, raw)
}

func publicURL(base, bucket, object string) string {
	obj := strings.TrimLeft(strings.TrimSpace(object), "/")
	return fmt.Sprintf("%s/%s/%s", strings.TrimRight(base, "/"), bucket, (&url.URL{Path: obj}).EscapedPath())
}

func objectFromURL(base, bucket, raw string) (string, bool) {
	prefix := strings.TrimRight(base, "/") + "/" + bucket + "/"
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, prefix) {
		return "", false
	}
	obj, err := url.PathUnescape(strings.TrimPrefix(raw, prefix))
	if err != nil || obj == "" {
		return "", false
	}
	return obj, true
}
