package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	cld "github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

var ErrNotConfigured = errors.New("image storage is not configured")

// Cloudinary stores event banners.
type Cloudinary struct {
	cld    *cld.Cloudinary
	folder string
}

// NewCloudinary returns an uploader for the given CLOUDINARY_URL. An empty
// url yields an uploader that refuses every upload.
func NewCloudinary(url, folder string) (*Cloudinary, error) {
	if url == "" {
		return &Cloudinary{folder: folder}, nil
	}

	cloud, err := cld.NewFromURL(url)
	if err != nil {
		return nil, fmt.Errorf("cld.NewFromURL -> %w", err)
	}

	return &Cloudinary{cld: cloud, folder: folder}, nil
}

func (c *Cloudinary) Enabled() bool {
	return c.cld != nil
}

// UploadImage stores the image under publicID and returns its https url.
func (c *Cloudinary) UploadImage(ctx context.Context, publicID string, file io.Reader) (string, error) {
	if c.cld == nil {
		return "", ErrNotConfigured
	}

	res, err := c.cld.Upload.Upload(ctx, file, uploader.UploadParams{
		Folder:       c.folder,
		PublicID:     publicID,
		ResourceType: "image",
	})
	if err != nil {
		return "", fmt.Errorf("c.cld.Upload.Upload -> %w", err)
	}
	if res.Error.Message != "" {
		return "", fmt.Errorf("cloudinary upload: %s", res.Error.Message)
	}

	return res.SecureURL, nil
}
