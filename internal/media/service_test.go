package media

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/minio/minio-go/v7"
)

type fakePutter struct {
	calls   int
	bucket  string
	object  string
	size    int64
	options minio.PutObjectOptions
}

func (f *fakePutter) PutObject(ctx context.Context, bucket, name string, r io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	f.calls++
	f.bucket = bucket
	f.object = name
	f.size = size
	f.options = opts
	if _, err := io.Copy(io.Discard, r); err != nil {
		return minio.UploadInfo{}, err
	}
	return minio.UploadInfo{Bucket: bucket, Key: name, Size: size}, nil
}

func TestPutStoresUnderKindPrefix(t *testing.T) {
	putter := &fakePutter{}
	svc := NewWithClient(putter, "media", "https://cdn.example.com/media")

	up, err := svc.Put(context.Background(), "hero", "banner.PNG", "image/png",
		1024, strings.NewReader(strings.Repeat("x", 1024)))
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	if putter.calls != 1 {
		t.Fatalf("expected one PutObject call, got %d", putter.calls)
	}
	if !strings.HasPrefix(putter.object, "hero/") {
		t.Errorf("expected object under hero/ prefix, got %s", putter.object)
	}
	if !strings.HasSuffix(putter.object, ".png") {
		t.Errorf("expected lowercase .png extension, got %s", putter.object)
	}
	if up.URL != "https://cdn.example.com/media/"+putter.object {
		t.Errorf("unexpected public URL %s", up.URL)
	}
	if up.Kind != "hero" || up.SizeBytes != 1024 {
		t.Errorf("unexpected upload metadata: %+v", up)
	}
	if putter.options.ContentType != "image/png" {
		t.Errorf("expected content type forwarded, got %s", putter.options.ContentType)
	}
}

func TestPutRejectsUnknownKind(t *testing.T) {
	putter := &fakePutter{}
	svc := NewWithClient(putter, "media", "https://cdn.example.com/media")

	_, err := svc.Put(context.Background(), "banner", "a.png", "image/png", 10, strings.NewReader("0123456789"))
	if !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind, got %v", err)
	}
	if putter.calls != 0 {
		t.Error("storage must not be touched for an invalid kind")
	}
}

func TestPutRejectsNonImage(t *testing.T) {
	putter := &fakePutter{}
	svc := NewWithClient(putter, "media", "https://cdn.example.com/media")

	_, err := svc.Put(context.Background(), "logo", "a.pdf", "application/pdf", 10, strings.NewReader("0123456789"))
	if !errors.Is(err, ErrNotImage) {
		t.Fatalf("expected ErrNotImage, got %v", err)
	}
	if putter.calls != 0 {
		t.Error("storage must not be touched for a non-image upload")
	}
}

func TestPutSizeCeilings(t *testing.T) {
	cases := []struct {
		kind  string
		size  int64
		valid bool
	}{
		{"hero", 5 << 20, true},
		{"hero", 5<<20 + 1, false},
		{"service", 5 << 20, true},
		{"logo", 2 << 20, true},
		{"logo", 2<<20 + 1, false},
		{"brand", 2<<20 + 1, false},
		{"favicon", 2 << 20, true},
		{"favicon", 0, false},
	}

	for _, tc := range cases {
		putter := &fakePutter{}
		svc := NewWithClient(putter, "media", "https://cdn.example.com/media")

		// The reader is intentionally short; size checks run before I/O.
		_, err := svc.Put(context.Background(), tc.kind, "a.png", "image/png",
			tc.size, strings.NewReader("tiny"))
		if tc.valid && err != nil {
			t.Errorf("%s size %d: unexpected error %v", tc.kind, tc.size, err)
		}
		if !tc.valid {
			if !errors.Is(err, ErrTooLarge) {
				t.Errorf("%s size %d: expected ErrTooLarge, got %v", tc.kind, tc.size, err)
			}
			if putter.calls != 0 {
				t.Errorf("%s size %d: storage touched for oversized upload", tc.kind, tc.size)
			}
		}
	}
}

func TestPutUnconfigured(t *testing.T) {
	svc, err := New(Options{})
	if err != nil {
		t.Fatalf("New with empty options failed: %v", err)
	}
	if svc.IsConfigured() {
		t.Fatal("expected unconfigured service")
	}

	_, err = svc.Put(context.Background(), "hero", "a.png", "image/png", 10, strings.NewReader("0123456789"))
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestFileExtFallsBackToContentType(t *testing.T) {
	if got := fileExt("upload", "image/webp"); got != ".webp" {
		t.Errorf("expected .webp, got %s", got)
	}
	if got := fileExt("icon", "image/svg+xml"); got != ".svg" {
		t.Errorf("expected .svg, got %s", got)
	}
	if got := fileExt("photo.JPEG", "image/jpeg"); got != ".jpeg" {
		t.Errorf("expected .jpeg, got %s", got)
	}
}
