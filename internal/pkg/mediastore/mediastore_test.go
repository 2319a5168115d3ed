package mediastore

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryUploader struct {
	mu      sync.Mutex
	objects map[string]string
	failOn  string
}

func (m *memoryUploader) Put(_ context.Context, key string, body []byte, contentType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOn != "" && strings.HasSuffix(key, m.failOn) {
		return errors.New("boom")
	}
	if m.objects == nil {
		m.objects = map[string]string{}
	}
	m.objects[key] = contentType
	return nil
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestProcessFitsLargeImages(t *testing.T) {
	p, err := Process(bytes.NewReader(pngBytes(t, 3200, 800)))
	require.NoError(t, err)
	assert.Equal(t, 1600, p.Width)
	assert.Equal(t, 400, p.Height)
	assert.NotEmpty(t, p.JPEG)
	assert.NotEmpty(t, p.WebP)
}

func TestProcessKeepsSmallImages(t *testing.T) {
	p, err := Process(bytes.NewReader(pngBytes(t, 40, 30)))
	require.NoError(t, err)
	assert.Equal(t, 40, p.Width)
	assert.Equal(t, 30, p.Height)
}

func TestValidateImageBySniff(t *testing.T) {
	_, err := ValidateImageBySniff("cover.svg", []byte("<svg></svg>"))
	assert.ErrorIs(t, err, ErrUnsupportedExtension)

	_, err = ValidateImageBySniff("cover.png", []byte("<html><body>hi</body></html>"))
	assert.ErrorIs(t, err, ErrUnsupportedContent)

	mime, err := ValidateImageBySniff("cover.PNG", pngBytes(t, 2, 2))
	require.NoError(t, err)
	assert.Equal(t, "image/png", mime)
}

func TestStoreSaveUploadsBothVariants(t *testing.T) {
	up := &memoryUploader{}
	s := NewStore(up, "https://cdn.example.org/")
	s.now = func() time.Time { return time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC) }

	res, err := s.Save(context.Background(), "stories", "cover.png", bytes.NewReader(pngBytes(t, 10, 10)))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(res.Key, "stories/2026/03/"))
	assert.True(t, strings.HasSuffix(res.Key, ".jpg"))
	assert.Equal(t, "https://cdn.example.org/"+res.Key, res.URL)
	assert.Equal(t, strings.TrimSuffix(res.URL, ".jpg")+".webp", res.WebPURL)
	assert.Len(t, up.objects, 2)
	assert.Equal(t, "image/jpeg", up.objects[res.Key])
}

func TestStoreSaveSurvivesWebPFailure(t *testing.T) {
	up := &memoryUploader{failOn: ".webp"}
	s := NewStore(up, "https://cdn.example.org")

	res, err := s.Save(context.Background(), "events", "cover.png", bytes.NewReader(pngBytes(t, 10, 10)))
	require.NoError(t, err)
	assert.NotEmpty(t, res.URL)
	assert.Empty(t, res.WebPURL)
}

func TestStoreSaveRejectsNonImages(t *testing.T) {
	s := NewStore(&memoryUploader{}, "https://cdn.example.org")
	_, err := s.Save(context.Background(), "stories", "notes.txt", strings.NewReader("hello"))
	assert.ErrorIs(t, err, ErrUnsupportedExtension)
}

func TestLoadConfigDerivesPublicURL(t *testing.T) {
	t.Setenv("S3_BUCKET", "osov-media")
	t.Setenv("S3_ENDPOINT", "https://s3.example.org/")
	t.Setenv("S3_PUBLIC_URL", "")
	cfg := LoadConfig()
	assert.Equal(t, "https://s3.example.org/osov-media", cfg.PublicURL)
	assert.False(t, cfg.IsEnabled())
}
