// Package media stores uploaded images in S3-compatible object storage.
package media

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var (
	ErrNotConfigured = errors.New("media storage not configured")
	ErrUnknownKind   = errors.New("unknown media kind")
	ErrNotImage      = errors.New("only image uploads are accepted")
	ErrTooLarge      = errors.New("file exceeds the size limit for its kind")
)

// kindLimits caps upload size per media kind, in bytes. Hero and service
// imagery may be larger than logos and favicons.
var kindLimits = map[string]int64{
	"hero":    5 << 20,
	"service": 5 << 20,
	"logo":    2 << 20,
	"brand":   2 << 20,
	"favicon": 2 << 20,
}

type objectPutter interface {
	PutObject(ctx context.Context, bucket, name string, r io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// Service validates uploads and writes them to a bucket. The zero check for
// configuration happens per call so the API can run without storage in
// development.
type Service struct {
	client    objectPutter
	bucket    string
	publicURL string
}

type Options struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	PublicURL string
}

func New(opts Options) (*Service, error) {
	if opts.Endpoint == "" {
		return &Service{}, nil
	}
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("connect object storage: %w", err)
	}

	publicURL := opts.PublicURL
	if publicURL == "" {
		scheme := "http"
		if opts.UseSSL {
			scheme = "https"
		}
		publicURL = fmt.Sprintf("%s://%s/%s", scheme, opts.Endpoint, opts.Bucket)
	}
	return &Service{
		client:    client,
		bucket:    opts.Bucket,
		publicURL: strings.TrimRight(publicURL, "/"),
	}, nil
}

// NewWithClient wires an explicit client, used by tests.
func NewWithClient(client objectPutter, bucket, publicURL string) *Service {
	return &Service{client: client, bucket: bucket, publicURL: strings.TrimRight(publicURL, "/")}
}

func (s *Service) IsConfigured() bool {
	return s.client != nil
}

// Upload holds an accepted upload's stored location.
type Upload struct {
	ObjectName  string
	FileName    string
	URL         string
	ContentType string
	SizeBytes   int64
	Kind        string
}

// Put validates and stores one upload. Size and MIME checks run before any
// storage I/O.
func (s *Service) Put(ctx context.Context, kind, fileName, contentType string, size int64, r io.Reader) (*Upload, error) {
	limit, ok := kindLimits[kind]
	if !ok {
		return nil, ErrUnknownKind
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, ErrNotImage
	}
	if size <= 0 || size > limit {
		return nil, ErrTooLarge
	}
	if s.client == nil {
		return nil, ErrNotConfigured
	}

	objectName := fmt.Sprintf("%s/%d-%s%s",
		kind, time.Now().UnixMilli(), randomSuffix(), fileExt(fileName, contentType))

	_, err := s.client.PutObject(ctx, s.bucket, objectName, io.LimitReader(r, limit), size,
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return nil, fmt.Errorf("store object: %w", err)
	}

	return &Upload{
		ObjectName:  objectName,
		FileName:    path.Base(objectName),
		URL:         s.publicURL + "/" + objectName,
		ContentType: contentType,
		SizeBytes:   size,
		Kind:        kind,
	}, nil
}

// Kinds returns the accepted media kinds in no particular order.
func Kinds() []string {
	out := make([]string, 0, len(kindLimits))
	for k := range kindLimits {
		out = append(out, k)
	}
	return out
}

func randomSuffix() string {
	b := make([]byte, 4)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// fileExt picks a lowercase extension from the original name, falling back
// to the MIME subtype when the name has none.
func fileExt(fileName, contentType string) string {
	if ext := strings.ToLower(path.Ext(fileName)); ext != "" {
		return ext
	}
	if _, subtype, ok := strings.Cut(contentType, "/"); ok && subtype != "" {
		if subtype == "svg+xml" {
			return ".svg"
		}
		return "." + subtype
	}
	return ""
}
