package helpers

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

const (
	IssueFolder  = "issues"
	AvatarFolder = "avatars"
)

// ImageStore uploads customer-supplied image references to Cloudinary and
// hands back stable secure URLs, which is what the booking records store.
type ImageStore struct {
	cld *cloudinary.Cloudinary
}

func NewImageStore(cld *cloudinary.Cloudinary) *ImageStore {
	return &ImageStore{cld: cld}
}

func (is *ImageStore) Upload(ctx context.Context, files []string, folder string) ([]string, error) {
	var urls []string

	for _, file := range files {
		if strings.TrimSpace(file) == "" {
			continue
		}
		result, err := is.cld.Upload.Upload(ctx, file, uploader.UploadParams{
			Folder: folder,
			Tags:   []string{"fixify"},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to upload image %s: %v", file, err)
		}
		urls = append(urls, result.SecureURL)
	}

	return urls, nil
}
