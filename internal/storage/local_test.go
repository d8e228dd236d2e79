package storage

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngPayload(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func newLocalStore(t *testing.T) *LocalStore {
	t.Helper()
	store, err := NewLocalStore(t.TempDir(), "http://api.test/", 1)
	require.NoError(t, err)
	return store
}

func TestLocalStore_UploadAndDestroy(t *testing.T) {
	store := newLocalStore(t)
	ctx := context.Background()

	res, err := store.Upload(ctx, "data:image/png;base64,"+pngPayload(t, 16, 8))
	require.NoError(t, err)

	assert.True(t, store.Owns(res.URL))
	assert.Equal(t, "http://api.test/media/"+res.AssetID+".jpg", res.URL)
	assert.Equal(t, res.AssetID, AssetIDFromURL(res.URL))
	assert.FileExists(t, filepath.Join(store.Dir(), res.AssetID+".jpg"))
	assert.FileExists(t, filepath.Join(store.Dir(), res.AssetID+".webp"))

	require.NoError(t, store.Destroy(ctx, res.AssetID))
	assert.NoFileExists(t, filepath.Join(store.Dir(), res.AssetID+".jpg"))
	assert.NoFileExists(t, filepath.Join(store.Dir(), res.AssetID+".webp"))

	// destroying twice is harmless
	require.NoError(t, store.Destroy(ctx, res.AssetID))
}

func TestLocalStore_BarePayloadIsDownscaled(t *testing.T) {
	store := newLocalStore(t)

	res, err := store.Upload(context.Background(), pngPayload(t, 2100, 10))
	require.NoError(t, err)

	f, err := os.Open(filepath.Join(store.Dir(), res.AssetID+".jpg"))
	require.NoError(t, err)
	defer f.Close()
	cfg, format, err := image.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, masterMaxSize, cfg.Width)
}

func TestLocalStore_RejectsInvalidPayloads(t *testing.T) {
	store := newLocalStore(t)

	tests := []struct {
		name    string
		payload string
	}{
		{"remote url", "https://example.com/a.png"},
		{"not base64", "%%%not-base64%%%"},
		{"not an image", base64.StdEncoding.EncodeToString([]byte("plain text, not pixels"))},
		{"data uri without base64", "data:image/png,rawbytes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.Upload(context.Background(), tt.payload)
			assert.ErrorIs(t, err, ErrInvalidPayload)
		})
	}
}

func TestLocalStore_DestroyRejectsTraversal(t *testing.T) {
	store := newLocalStore(t)
	assert.Error(t, store.Destroy(context.Background(), "../../etc/passwd"))
}
