// Package storage manages post image attachments held in an external object
// store.
package storage

import (
	"context"
	"errors"
	"strings"
)

// ErrInvalidPayload marks an image payload the store refused to accept
// because it is not a decodable image.
var ErrInvalidPayload = errors.New("invalid image payload")

// UploadResult is what the object store returns for a stored image.
type UploadResult struct {
	URL     string
	AssetID string
}

// ObjectStore is the external image host.
type ObjectStore interface {
	// Upload stores src, which is a data URI, a bare base64 payload or a
	// remote URL the store can fetch.
	Upload(ctx context.Context, src string) (UploadResult, error)
	// Destroy removes the asset. Destroying a missing asset is not an error.
	Destroy(ctx context.Context, assetID string) error
	// Owns reports whether url was issued by this store.
	Owns(url string) bool
	Name() string
}

// AssetIDFromURL derives the asset identifier from a retrieval URL: query and
// fragment are stripped, the final path segment is taken and everything from
// its first dot on is dropped. Used for posts stored before the asset id was
// persisted alongside the URL.
func AssetIDFromURL(raw string) string {
	s := strings.TrimSpace(raw)
	if i := strings.IndexAny(s, "?#"); i >= 0 {
		s = s[:i]
	}
	segment := s[strings.LastIndex(s, "/")+1:]
	if i := strings.Index(segment, "."); i >= 0 {
		segment = segment[:i]
	}
	return segment
}
