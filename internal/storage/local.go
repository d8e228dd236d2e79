package storage

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	_ "image/gif" // Register GIF decoder
	_ "image/png" // Register PNG decoder

	"github.com/chai2010/webp"
	"github.com/google/uuid"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	masterMaxSize = 2048
	jpegQuality   = 82
	webpQuality   = 70
	// MediaPrefix is the route the local store's files are served under.
	MediaPrefix = "/media/"
)

// LocalStore writes normalized images to a directory served by the API
// itself. Each asset is a JPEG master with a WebP sibling.
type LocalStore struct {
	dir      string
	baseURL  string
	maxBytes int64
}

// NewLocalStore creates dir if needed. baseURL is the public origin of the
// API, without a trailing slash.
func NewLocalStore(dir, baseURL string, maxUploadMB int) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	if maxUploadMB <= 0 {
		maxUploadMB = 10
	}
	return &LocalStore{
		dir:      dir,
		baseURL:  strings.TrimRight(baseURL, "/"),
		maxBytes: int64(maxUploadMB) * 1024 * 1024,
	}, nil
}

// Name identifies the backend in logs and spans.
func (s *LocalStore) Name() string { return "local" }

// Dir is the directory served under MediaPrefix.
func (s *LocalStore) Dir() string { return s.dir }

// Upload decodes a data URI or bare base64 payload, validates it as an image,
// and writes the JPEG master and WebP variant.
func (s *LocalStore) Upload(ctx context.Context, src string) (UploadResult, error) {
	content, err := decodePayload(src)
	if err != nil {
		return UploadResult{}, err
	}
	if int64(len(content)) > s.maxBytes {
		return UploadResult{}, fmt.Errorf("%w: larger than %dMB", ErrInvalidPayload, s.maxBytes/(1024*1024))
	}
	if !isAllowedImageMIME(http.DetectContentType(content)) {
		return UploadResult{}, fmt.Errorf("%w: unsupported content type", ErrInvalidPayload)
	}

	decoded, _, err := image.Decode(bytes.NewReader(content))
	if err != nil {
		return UploadResult{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	master := resizeToFit(decoded, masterMaxSize, masterMaxSize)

	jpgBytes, err := encodeJPEG(master)
	if err != nil {
		return UploadResult{}, err
	}
	webpBytes, err := encodeWebP(master)
	if err != nil {
		return UploadResult{}, err
	}

	if err := ctx.Err(); err != nil {
		return UploadResult{}, err
	}

	assetID := uuid.NewString()
	jpgPath := filepath.Join(s.dir, assetID+".jpg")
	if err := os.WriteFile(jpgPath, jpgBytes, 0o600); err != nil {
		return UploadResult{}, err
	}
	if err := os.WriteFile(filepath.Join(s.dir, assetID+".webp"), webpBytes, 0o600); err != nil {
		_ = os.Remove(jpgPath)
		return UploadResult{}, err
	}

	return UploadResult{
		URL:     s.baseURL + MediaPrefix + assetID + ".jpg",
		AssetID: assetID,
	}, nil
}

// Destroy removes both files of the asset.
func (s *LocalStore) Destroy(_ context.Context, assetID string) error {
	// asset ids are uuids; anything else could escape the directory
	if _, err := uuid.Parse(assetID); err != nil {
		return fmt.Errorf("invalid asset id %q", assetID)
	}
	var errs []error
	for _, ext := range []string{".jpg", ".webp"} {
		if err := os.Remove(filepath.Join(s.dir, assetID+ext)); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Owns reports whether url was issued by this store.
func (s *LocalStore) Owns(url string) bool {
	return strings.HasPrefix(url, s.baseURL+MediaPrefix)
}

func decodePayload(src string) ([]byte, error) {
	src = strings.TrimSpace(src)
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		return nil, fmt.Errorf("%w: remote sources are not supported by the local store", ErrInvalidPayload)
	}

	data := src
	if strings.HasPrefix(src, "data:") {
		meta, body, ok := strings.Cut(strings.TrimPrefix(src, "data:"), ",")
		if !ok || !strings.HasSuffix(meta, ";base64") {
			return nil, fmt.Errorf("%w: data URI must be base64 encoded", ErrInvalidPayload)
		}
		data = body
	}

	content, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		content, err = base64.RawStdEncoding.DecodeString(data)
	}
	if err != nil || len(content) == 0 {
		return nil, fmt.Errorf("%w: not base64", ErrInvalidPayload)
	}
	return content, nil
}

func isAllowedImageMIME(contentType string) bool {
	switch contentType {
	case "image/jpeg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}

func resizeToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 || (w <= maxWidth && h <= maxHeight) {
		return src
	}

	scale := float64(maxWidth) / float64(w)
	if s := float64(maxHeight) / float64(h); s < scale {
		scale = s
	}
	newW := max(int(float64(w)*scale), 1)
	newH := max(int(float64(h)*scale), 1)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

func encodeJPEG(img image.Image) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeWebP(img image.Image) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := webp.Encode(buf, img, &webp.Options{Quality: webpQuality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
