package mediastore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
)

// MaxUploadSize caps a single image upload
const MaxUploadSize = 10 << 20

var ErrTooLarge = errors.New("image is larger than 10 MB")

// Result points at the stored variants
type Result struct {
	Key     string
	URL     string
	WebPURL string
}

// Store processes uploads and writes them under <folder>/YYYY/MM/<uuid>.
type Store struct {
	uploader  Uploader
	publicURL string
	now       func() time.Time
}

func NewStore(uploader Uploader, publicURL string) *Store {
	return &Store{
		uploader:  uploader,
		publicURL: strings.TrimRight(publicURL, "/"),
		now:       time.Now,
	}
}

// NewStoreFromEnv returns nil when object storage is not configured; callers
// then keep records without an image.
func NewStoreFromEnv(ctx context.Context) (*Store, error) {
	cfg := LoadConfig()
	if !cfg.IsEnabled() {
		log.Warn("[MediaStore] S3 not configured, image uploads disabled")
		return nil, nil
	}
	uploader, err := NewS3Uploader(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return NewStore(uploader, cfg.PublicURL), nil
}

// Save validates, processes and uploads one image.
func (s *Store) Save(ctx context.Context, folder, filename string, r io.Reader) (*Result, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxUploadSize+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if len(data) > MaxUploadSize {
		return nil, ErrTooLarge
	}

	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	if _, err := ValidateImageBySniff(filename, head); err != nil {
		return nil, err
	}

	processed, err := Process(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	base := fmt.Sprintf("%s/%s/%s", strings.Trim(folder, "/"), s.now().UTC().Format("2006/01"), uuid.NewString())
	key := base + ".jpg"
	webpKey := base + ".webp"

	if err := s.uploader.Put(ctx, key, processed.JPEG, "image/jpeg"); err != nil {
		return nil, err
	}
	if err := s.uploader.Put(ctx, webpKey, processed.WebP, "image/webp"); err != nil {
		// the JPEG alone is still usable
		log.Warnf("[MediaStore] webp variant for %s failed: %v", key, err)
		webpKey = ""
	}

	res := &Result{Key: key, URL: s.publicURL + "/" + key}
	if webpKey != "" {
		res.WebPURL = s.publicURL + "/" + webpKey
	}
	return res, nil
}

// SaveFile is Save for a multipart form file.
func (s *Store) SaveFile(ctx context.Context, folder string, fh *multipart.FileHeader) (*Result, error) {
	if fh.Size > MaxUploadSize {
		return nil, ErrTooLarge
	}
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()
	return s.Save(ctx, folder, fh.Filename, f)
}
