package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	"image/jpeg"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	// Register GIF and PNG decoders for image.Decode.
	_ "image/gif"
	_ "image/png"

	"scribble/internal/config"
	"scribble/internal/models"
	"scribble/internal/observability"

	"github.com/chai2010/webp"
	"go.opentelemetry.io/otel/attribute"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	DefaultMediaRoot            = "media"
	DefaultImageMaxUploadSizeMB = 10
	PostImageMaxSize            = 1080
	PostImageDir                = "posts"
	JPEGQuality                 = 85
	WebPQuality                 = 75
)

// ImageUpload is a file received from a multipart form.
type ImageUpload struct {
	Filename    string
	ContentType string
	Content     []byte
}

// ImageStore persists an upload and returns its path relative to the media root.
type ImageStore interface {
	Store(ctx context.Context, in ImageUpload) (string, error)
}

// ImageService normalises post images and writes them under the media root.
type ImageService struct {
	mediaRoot          string
	maxUploadSizeBytes int64
}

func NewImageService(cfg *config.Config) *ImageService {
	mediaRoot := DefaultMediaRoot
	maxBytes := int64(DefaultImageMaxUploadSizeMB) * 1024 * 1024
	if cfg != nil {
		if cfg.MediaRoot != "" {
			mediaRoot = cfg.MediaRoot
		}
		if b := cfg.ImageMaxUploadBytes(); b > 0 {
			maxBytes = b
		}
	}
	return &ImageService{mediaRoot: mediaRoot, maxUploadSizeBytes: maxBytes}
}

// MediaRoot is the directory served under /media/.
func (s *ImageService) MediaRoot() string { return s.mediaRoot }

// Store validates the upload, resizes it to fit PostImageMaxSize and writes a JPEG
// plus a WebP sibling. Identical images map to the same path.
func (s *ImageService) Store(ctx context.Context, in ImageUpload) (relPath string, err error) {
	_, span := observability.StartServiceSpan(ctx, "ImageService", "Store",
		attribute.Int("image.size_bytes", len(in.Content)))
	defer func() { observability.EndSpan(span, err) }()

	if len(in.Content) == 0 {
		return "", models.NewValidationError("The submitted file is empty.")
	}
	if int64(len(in.Content)) > s.maxUploadSizeBytes {
		return "", models.NewValidationError(fmt.Sprintf("File too large (max %dMB).", s.maxUploadSizeBytes/(1024*1024)))
	}

	detectedType := http.DetectContentType(in.Content)
	if !isAllowedImageMIME(detectedType) {
		return "", models.NewValidationError("Upload a valid image. The file you uploaded was either not an image or a corrupted image.")
	}

	decoded, format, err := image.Decode(bytes.NewReader(in.Content))
	if err != nil || !isSupportedDecodedFormat(format) {
		return "", models.NewValidationError("Upload a valid image. The file you uploaded was either not an image or a corrupted image.")
	}
	if provided := normalizeContentType(in.ContentType); strings.HasPrefix(provided, "image/") && !isMatchingContentType(provided, decodedFormatToMime(format)) {
		return "", models.NewValidationError("Image content type mismatch.")
	}

	resized := resizeToFit(decoded, PostImageMaxSize, PostImageMaxSize)

	encodedJPG, err := encodeJPEG(resized, JPEGQuality)
	if err != nil {
		return "", models.NewInternalError(err)
	}
	encodedWebP, err := encodeWebP(resized, WebPQuality)
	if err != nil {
		return "", models.NewInternalError(err)
	}

	sum := sha256.Sum256(encodedJPG)
	name := hex.EncodeToString(sum[:])
	jpgRel := path.Join(PostImageDir, name+".jpg")
	webpRel := path.Join(PostImageDir, name+".webp")

	jpgAbs := filepath.Join(s.mediaRoot, filepath.FromSlash(jpgRel))
	webpAbs := filepath.Join(s.mediaRoot, filepath.FromSlash(webpRel))
	if err := writeBytesToFile(jpgAbs, encodedJPG); err != nil {
		return "", models.NewInternalError(err)
	}
	if err := writeBytesToFile(webpAbs, encodedWebP); err != nil {
		cleanupImageFiles([]string{jpgAbs})
		return "", models.NewInternalError(err)
	}
	return jpgRel, nil
}

// WebPPath returns the WebP sibling of a stored JPEG path.
func WebPPath(jpgRel string) string {
	if jpgRel == "" {
		return ""
	}
	return strings.TrimSuffix(jpgRel, path.Ext(jpgRel)) + ".webp"
}

func resizeToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	if w <= 0 || h <= 0 {
		return src
	}
	if w <= maxWidth && h <= maxHeight {
		return src
	}

	scale := min(float64(maxWidth)/float64(w), float64(maxHeight)/float64(h))
	newW := max(int(float64(w)*scale), 1)
	newH := max(int(float64(h)*scale), 1)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeWebP(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := webp.Encode(buf, img, &webp.Options{Quality: float32(quality)}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func isAllowedImageMIME(contentType string) bool {
	switch normalizeContentType(contentType) {
	case "image/jpeg", "image/jpg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}

func normalizeContentType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}

func isMatchingContentType(provided, detected string) bool {
	p := normalizeContentType(provided)
	d := normalizeContentType(detected)
	if p == d {
		return true
	}
	return (p == "image/jpg" && d == "image/jpeg") || (p == "image/jpeg" && d == "image/jpg")
}

func isSupportedDecodedFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "jpeg", "jpg", "png", "gif", "webp":
		return true
	default:
		return false
	}
}

func decodedFormatToMime(format string) string {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "jpeg", "jpg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	default:
		return ""
	}
}

func writeBytesToFile(p string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil {
		return err
	}
	return os.WriteFile(p, data, 0o600)
}

func cleanupImageFiles(paths []string) {
	for _, p := range paths {
		_ = os.Remove(p)
	}
}
