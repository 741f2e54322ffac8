package service

import (
	"context"
	"image"
	_ "image/jpeg"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"scribble/internal/config"
	"scribble/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImageService_StoreResizesAndWritesBothFormats(t *testing.T) {
	cfg := &config.Config{MediaRoot: t.TempDir(), ImageMaxUploadSizeMB: 5}
	svc := NewImageService(cfg)

	rel, err := svc.Store(context.Background(), ImageUpload{
		Filename:    "wide.png",
		ContentType: "image/png",
		Content:     testutil.TinyPNG(t, 2160, 1080),
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(rel, "posts/"), rel)
	assert.True(t, strings.HasSuffix(rel, ".jpg"), rel)

	f, err := os.Open(filepath.Join(cfg.MediaRoot, rel))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	decoded, _, err := image.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, 1080, decoded.Width)
	assert.Equal(t, 540, decoded.Height)

	_, err = os.Stat(filepath.Join(cfg.MediaRoot, WebPPath(rel)))
	assert.NoError(t, err)
}

func TestImageService_StoreIsContentAddressed(t *testing.T) {
	svc := NewImageService(&config.Config{MediaRoot: t.TempDir()})
	content := testutil.TinyPNG(t, 40, 30)

	first, err := svc.Store(context.Background(), ImageUpload{Content: content})
	require.NoError(t, err)
	second, err := svc.Store(context.Background(), ImageUpload{Content: content})
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestImageService_StoreRejects(t *testing.T) {
	svc := NewImageService(&config.Config{MediaRoot: t.TempDir(), ImageMaxUploadSizeMB: 1})
	png := testutil.TinyPNG(t, 10, 10)

	tests := []struct {
		name string
		in   ImageUpload
	}{
		{"empty", ImageUpload{}},
		{"not an image", ImageUpload{Content: []byte("definitely not a picture")}},
		{"too large", ImageUpload{Content: make([]byte, 2*1024*1024)}},
		{"content type mismatch", ImageUpload{ContentType: "image/jpeg", Content: png}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Store(context.Background(), tt.in)
			assertValidationError(t, err)
		})
	}
}

func TestWebPPath(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "posts/abc.webp", WebPPath("posts/abc.jpg"))
	assert.Equal(t, "", WebPPath(""))
}
