package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"chirp/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	uploadFn  func(ctx context.Context, src string) (UploadResult, error)
	destroyFn func(ctx context.Context, assetID string) error
	uploads   []string
	destroyed []string
}

func (f *fakeStore) Name() string { return "fake" }

func (f *fakeStore) Owns(url string) bool {
	return strings.HasPrefix(url, "https://cdn.test/")
}

func (f *fakeStore) Upload(ctx context.Context, src string) (UploadResult, error) {
	f.uploads = append(f.uploads, src)
	if f.uploadFn != nil {
		return f.uploadFn(ctx, src)
	}
	id := fmt.Sprintf("asset%d", len(f.uploads))
	return UploadResult{URL: "https://cdn.test/" + id + ".jpg", AssetID: id}, nil
}

func (f *fakeStore) Destroy(ctx context.Context, assetID string) error {
	f.destroyed = append(f.destroyed, assetID)
	if f.destroyFn != nil {
		return f.destroyFn(ctx, assetID)
	}
	return nil
}

func TestAttachmentManager_Upload(t *testing.T) {
	store := &fakeStore{}
	m := NewAttachmentManager(store, time.Second)

	res, err := m.Upload(context.Background(), "data:image/png;base64,AAAA")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.test/asset1.jpg", res.URL)
	assert.Equal(t, "asset1", res.AssetID)
}

func TestAttachmentManager_UploadOwnedURLIsPassThrough(t *testing.T) {
	store := &fakeStore{}
	m := NewAttachmentManager(store, time.Second)

	res, err := m.Upload(context.Background(), "https://cdn.test/existing.jpg")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.test/existing.jpg", res.URL)
	assert.Equal(t, "existing", res.AssetID)
	assert.Empty(t, store.uploads)
}

func TestAttachmentManager_UploadErrors(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		storeErr error
		wantCode string
	}{
		{"empty payload", "  ", nil, models.CodeValidation},
		{"store failure", "data:x", errors.New("503 from host"), models.CodeExternalService},
		{"rejected payload", "data:x", fmt.Errorf("%w: bad header", ErrInvalidPayload), models.CodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{uploadFn: func(context.Context, string) (UploadResult, error) {
				return UploadResult{}, tt.storeErr
			}}
			m := NewAttachmentManager(store, time.Second)

			_, err := m.Upload(context.Background(), tt.payload)
			require.Error(t, err)
			assert.True(t, models.HasCode(err, tt.wantCode), "got %v", err)
		})
	}
}

func TestAttachmentManager_UploadTimeout(t *testing.T) {
	store := &fakeStore{uploadFn: func(ctx context.Context, _ string) (UploadResult, error) {
		<-ctx.Done()
		return UploadResult{}, ctx.Err()
	}}
	m := NewAttachmentManager(store, 20*time.Millisecond)

	start := time.Now()
	_, err := m.Upload(context.Background(), "data:x")
	require.Error(t, err)
	assert.True(t, models.HasCode(err, models.CodeExternalService))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestAttachmentManager_Delete(t *testing.T) {
	t.Run("stored asset id wins", func(t *testing.T) {
		store := &fakeStore{}
		m := NewAttachmentManager(store, time.Second)
		require.NoError(t, m.Delete(context.Background(), "https://cdn.test/derived.jpg", "folder/stored"))
		assert.Equal(t, []string{"folder/stored"}, store.destroyed)
	})

	t.Run("derived from url when no id stored", func(t *testing.T) {
		store := &fakeStore{}
		m := NewAttachmentManager(store, time.Second)
		require.NoError(t, m.Delete(context.Background(), "https://cdn.test/derived.jpg?v=2", ""))
		assert.Equal(t, []string{"derived"}, store.destroyed)
	})

	t.Run("nothing to delete", func(t *testing.T) {
		store := &fakeStore{}
		m := NewAttachmentManager(store, time.Second)
		require.NoError(t, m.Delete(context.Background(), "", ""))
		assert.Empty(t, store.destroyed)
	})

	t.Run("store failure is external", func(t *testing.T) {
		store := &fakeStore{destroyFn: func(context.Context, string) error { return errors.New("boom") }}
		m := NewAttachmentManager(store, time.Second)
		err := m.Delete(context.Background(), "https://cdn.test/a.jpg", "a")
		assert.True(t, models.HasCode(err, models.CodeExternalService))
	})
}
