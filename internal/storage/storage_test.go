package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAssetIDFromURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		url  string
		want string
	}{
		{"cloudinary url", "https://res.cloudinary.com/demo/image/upload/v1712/abc123.jpg", "abc123"},
		{"query string", "https://cdn.example.com/img/abc123.png?w=200&h=100", "abc123"},
		{"fragment", "https://cdn.example.com/img/abc123.webp#frag", "abc123"},
		{"query and fragment", "https://cdn.example.com/abc123.jpg?x=1#y", "abc123"},
		{"no extension", "https://cdn.example.com/img/abc123", "abc123"},
		{"multiple dots", "https://cdn.example.com/img/abc.v2.jpg", "abc"},
		{"local media", "http://localhost:8375/media/5f3c9f0e-1111-4222-8333-944445555666.jpg", "5f3c9f0e-1111-4222-8333-944445555666"},
		{"bare file", "abc123.jpg", "abc123"},
		{"trailing slash", "https://cdn.example.com/img/", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AssetIDFromURL(tt.url))
		})
	}
}
