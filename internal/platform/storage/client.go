// Package storage issues signed upload URLs and writes preview images to
// Cloud Storage.
package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
)

var (
	ErrNoSigner           = errors.New("storage: signer is required")
	ErrContentTypeDenied  = errors.New("storage: content type not allowed")
	ErrInvalidObject      = errors.New("storage: bucket and object are required")
	errObjectWriterAbsent = errors.New("storage: object writer not configured")
)

// Upload is a signed PUT target.
type Upload struct {
	URL       string            `json:"url"`
	Method    string            `json:"method"`
	Headers   map[string]string `json:"headers"`
	ExpiresAt time.Time         `json:"expiresAt"`
	ObjectURL string            `json:"objectUrl"`
}

// ObjectWriter stores bytes and returns the public URL.
type ObjectWriter interface {
	PutObject(ctx context.Context, bucket, object, contentType string, data []byte) (string, error)
}

// Client signs upload URLs and optionally writes objects directly.
type Client struct {
	signer Signer
	gcs    *storage.Client
	ttl    time.Duration
	now    func() time.Time
}

type ClientOption func(*Client)

// WithGCS enables PutObject through a Cloud Storage client.
func WithGCS(gcs *storage.Client) ClientOption {
	return func(c *Client) { c.gcs = gcs }
}

func WithTTL(ttl time.Duration) ClientOption {
	return func(c *Client) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

func WithClock(now func() time.Time) ClientOption {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

func NewClient(signer Signer, opts ...ClientOption) (*Client, error) {
	if signer == nil || strings.TrimSpace(signer.Email()) == "" {
		return nil, ErrNoSigner
	}
	c := &Client{signer: signer, ttl: 15 * time.Minute, now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// SignedUpload returns a V4 signed PUT URL restricted to contentType and
// at most maxSize bytes.
func (c *Client) SignedUpload(ctx context.Context, bucket, object, contentType string, allowed []string, maxSize int64) (Upload, error) {
	bucket, object = strings.TrimSpace(bucket), strings.TrimSpace(object)
	if bucket == "" || object == "" {
		return Upload{}, ErrInvalidObject
	}
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	if !contentTypeAllowed(contentType, allowed) {
		return Upload{}, fmt.Errorf("%w: %s", ErrContentTypeDenied, contentType)
	}

	expires := c.now().Add(c.ttl)
	headers := map[string]string{"Content-Type": contentType}
	var extra []string
	if maxSize > 0 {
		rng := fmt.Sprintf("0,%d", maxSize)
		headers["x-goog-content-length-range"] = rng
		extra = append(extra, "x-goog-content-length-range:"+rng)
	}
	signed, err := storage.SignedURL(bucket, object, &storage.SignedURLOptions{
		GoogleAccessID: c.signer.Email(),
		Scheme:         storage.SigningSchemeV4,
		Method:         "PUT",
		ContentType:    contentType,
		Headers:        extra,
		Expires:        expires,
		SignBytes: func(b []byte) ([]byte, error) {
			return c.signer.SignBytes(ctx, b)
		},
	})
	if err != nil {
		return Upload{}, fmt.Errorf("storage: sign upload url: %w", err)
	}
	return Upload{
		URL:       signed,
		Method:    "PUT",
		Headers:   headers,
		ExpiresAt: expires,
		ObjectURL: PublicURL(bucket, object),
	}, nil
}

// PutObject writes data to bucket/object.
func (c *Client) PutObject(ctx context.Context, bucket, object, contentType string, data []byte) (string, error) {
	if c.gcs == nil {
		return "", errObjectWriterAbsent
	}
	if strings.TrimSpace(bucket) == "" || strings.TrimSpace(object) == "" {
		return "", ErrInvalidObject
	}
	w := c.gcs.Bucket(bucket).Object(object).NewWriter(ctx)
	w.ContentType = contentType
	w.CacheControl = "public, max-age=300"
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("storage: write %s: %w", object, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("storage: close %s: %w", object, err)
	}
	return PublicURL(bucket, object), nil
}

// PublicURL is the unauthenticated HTTPS URL of an object.
func PublicURL(bucket, object string) string {
	u := url.URL{Scheme: "https", Host: "storage.googleapis.com", Path: "/" + path.Join(bucket, object)}
	return u.String()
}

// AssetObject is the object path for an uploaded asset file.
func AssetObject(assetType, assetID, fileName string) string {
	name := sanitizeName(fileName)
	if name == "" {
		name = "file"
	}
	return path.Join("assets", sanitizeName(assetType), assetID, name)
}

// PreviewObject is the object path for a design preview PNG.
func PreviewObject(designID string) string {
	return path.Join("previews", sanitizeName(designID)+".png")
}

func sanitizeName(s string) string {
	s = strings.TrimSpace(path.Base("/" + s))
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('-')
		}
	}
	return strings.Trim(b.String(), ".")
}

func contentTypeAllowed(ct string, allowed []string) bool {
	if ct == "" {
		return false
	}
	if len(allowed) == 0 {
		return true
	}
	for _, a := range allowed {
		a = strings.ToLower(strings.TrimSpace(a))
		if a == ct {
			return true
		}
		if strings.HasSuffix(a, "/*") && strings.HasPrefix(ct, strings.TrimSuffix(a, "*")) {
			return true
		}
	}
	return false
}
