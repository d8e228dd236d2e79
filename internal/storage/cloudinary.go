package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// cloudinaryAPI is the subset of the Cloudinary upload API the store uses.
type cloudinaryAPI interface {
	Upload(ctx context.Context, file interface{}, params uploader.UploadParams) (*uploader.UploadResult, error)
	Destroy(ctx context.Context, params uploader.DestroyParams) (*uploader.DestroyResult, error)
}

// CloudinaryStore keeps post images in a Cloudinary folder.
type CloudinaryStore struct {
	api       cloudinaryAPI
	cloudName string
	folder    string
}

// NewCloudinaryStore builds a store from a cloudinary:// URL.
func NewCloudinaryStore(cloudinaryURL, folder string) (*CloudinaryStore, error) {
	cld, err := cloudinary.NewFromURL(cloudinaryURL)
	if err != nil {
		return nil, fmt.Errorf("cloudinary configuration error: %w", err)
	}
	return &CloudinaryStore{
		api:       &cld.Upload,
		cloudName: cld.Config.Cloud.CloudName,
		folder:    folder,
	}, nil
}

// Name identifies the backend in logs and spans.
func (s *CloudinaryStore) Name() string { return "cloudinary" }

// Upload sends src to Cloudinary, which accepts data URIs and remote URLs.
func (s *CloudinaryStore) Upload(ctx context.Context, src string) (UploadResult, error) {
	res, err := s.api.Upload(ctx, src, uploader.UploadParams{
		Folder: s.folder,
	})
	if err != nil {
		return UploadResult{}, err
	}
	if res.Error.Message != "" {
		if strings.Contains(strings.ToLower(res.Error.Message), "invalid image") {
			return UploadResult{}, fmt.Errorf("%w: %s", ErrInvalidPayload, res.Error.Message)
		}
		return UploadResult{}, errors.New(res.Error.Message)
	}
	if res.SecureURL == "" {
		return UploadResult{}, errors.New("cloudinary returned no secure url")
	}
	return UploadResult{URL: res.SecureURL, AssetID: res.PublicID}, nil
}

// Destroy removes the asset. Cloudinary reports "not found" for missing
// assets, which is treated as success.
func (s *CloudinaryStore) Destroy(ctx context.Context, assetID string) error {
	res, err := s.api.Destroy(ctx, uploader.DestroyParams{PublicID: assetID})
	if err != nil {
		return err
	}
	if res.Error.Message != "" {
		return errors.New(res.Error.Message)
	}
	switch res.Result {
	case "ok", "not found":
		return nil
	default:
		return fmt.Errorf("cloudinary destroy %q: %s", assetID, res.Result)
	}
}

// Owns reports whether url points at this cloud's delivery host.
func (s *CloudinaryStore) Owns(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Host != "res.cloudinary.com" {
		return false
	}
	return strings.HasPrefix(u.Path, "/"+s.cloudName+"/")
}
