package storage

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"chirp/internal/middleware"
	"chirp/internal/models"
	"chirp/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

const storageService = "image storage"

// AttachmentManager fronts the object store for post images. Every call runs
// under the configured timeout and is never retried; failures surface as
// ExternalServiceError, rejected payloads as ValidationError.
type AttachmentManager struct {
	store   ObjectStore
	timeout time.Duration
}

// NewAttachmentManager wraps store with a per-call timeout.
func NewAttachmentManager(store ObjectStore, timeout time.Duration) *AttachmentManager {
	return &AttachmentManager{store: store, timeout: timeout}
}

// Upload stores payload and returns its URL and asset id. A URL the store
// already owns is returned as-is without a round trip.
func (m *AttachmentManager) Upload(ctx context.Context, payload string) (UploadResult, error) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return UploadResult{}, models.NewValidationError("Image payload is empty")
	}
	if m.store.Owns(payload) {
		return UploadResult{URL: payload, AssetID: AssetIDFromURL(payload)}, nil
	}

	span, ctx := observability.NewSpan(ctx, "storage.Upload")
	defer span.End()
	span.AddAttributes(attribute.String("storage.backend", m.store.Name()))

	ctx, cancel := m.withTimeout(ctx)
	defer cancel()

	done := observability.TrackStorage("upload")
	res, err := m.store.Upload(ctx, payload)
	done(err)
	if err != nil {
		span.SetError(err)
		if errors.Is(err, ErrInvalidPayload) {
			return UploadResult{}, models.NewValidationError("Image payload is not a supported image")
		}
		middleware.Logger.ErrorContext(ctx, "image upload failed",
			slog.String("backend", m.store.Name()),
			slog.String("error", err.Error()),
		)
		return UploadResult{}, models.NewExternalServiceError(storageService, err)
	}

	span.AddAttributes(attribute.String("storage.asset_id", res.AssetID))
	return res, nil
}

// Delete destroys the asset behind an attachment. The stored asset id wins;
// the URL-derived id covers posts written before ids were persisted. An
// attachment with no resolvable id is a no-op.
func (m *AttachmentManager) Delete(ctx context.Context, url, assetID string) error {
	id := assetID
	if id == "" {
		id = AssetIDFromURL(url)
	}
	if id == "" {
		return nil
	}

	span, ctx := observability.NewSpan(ctx, "storage.Delete")
	defer span.End()
	span.AddAttributes(
		attribute.String("storage.backend", m.store.Name()),
		attribute.String("storage.asset_id", id),
	)

	ctx, cancel := m.withTimeout(ctx)
	defer cancel()

	done := observability.TrackStorage("destroy")
	err := m.store.Destroy(ctx, id)
	done(err)
	if err != nil {
		span.SetError(err)
		return models.NewExternalServiceError(storageService, err)
	}
	return nil
}

// Owns reports whether url was issued by the underlying store.
func (m *AttachmentManager) Owns(url string) bool {
	return m.store.Owns(url)
}

func (m *AttachmentManager) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if m.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, m.timeout)
}
