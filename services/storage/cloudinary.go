package storage

import (
	"context"
	"fmt"
	"mime/multipart"
	"path"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// CloudinaryStore uploads files to Cloudinary and returns their secure URL.
type CloudinaryStore struct {
	cld        *cloudinary.Cloudinary
	rootFolder string
}

// NewCloudinaryStore builds a Cloudinary client from credentials.
func NewCloudinaryStore(cloudName, apiKey, apiSecret, rootFolder string) (*CloudinaryStore, error) {
	if cloudName == "" || apiKey == "" || apiSecret == "" {
		return nil, fmt.Errorf("cloudinary credentials not set in configuration")
	}
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Cloudinary: %w", err)
	}
	return &CloudinaryStore{cld: cld, rootFolder: rootFolder}, nil
}

// Save uploads file into <rootFolder>/<folder>.
func (s *CloudinaryStore) Save(ctx context.Context, file *multipart.FileHeader, folder string) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	params := uploader.UploadParams{
		Folder:       path.Join(s.rootFolder, folder),
		ResourceType: "auto",
	}
	result, err := s.cld.Upload.Upload(ctx, src, params)
	if err != nil {
		return "", fmt.Errorf("failed to upload file: %w", err)
	}
	if result.Error.Message != "" {
		return "", fmt.Errorf("cloudinary rejected upload: %s", result.Error.Message)
	}
	if result.SecureURL == "" {
		return "", fmt.Errorf("no secure URL returned")
	}
	return result.SecureURL, nil
}

// Delete destroys the asset behind a secure URL.
func (s *CloudinaryStore) Delete(ctx context.Context, ref string) error {
	resourceType, publicID, ok := parseCloudinaryURL(ref)
	if !ok {
		return nil
	}
	_, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID, ResourceType: resourceType})
	if err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// parseCloudinaryURL extracts the resource type and public ID from
// https://res.cloudinary.com/<cloud>/<type>/upload/v<version>/<folder>/<id>.<ext>.
func parseCloudinaryURL(ref string) (resourceType, publicID string, ok bool) {
	if !strings.Contains(ref, "res.cloudinary.com/") {
		return "", "", false
	}
	parts := strings.SplitN(ref, "/upload/", 2)
	if len(parts) != 2 {
		return "", "", false
	}
	resourceType = path.Base(parts[0])

	rest := parts[1]
	if segs := strings.SplitN(rest, "/", 2); len(segs) == 2 && isVersion(segs[0]) {
		rest = segs[1]
	}
	// Raw assets keep their extension in the public ID.
	if resourceType != "raw" {
		rest = strings.TrimSuffix(rest, path.Ext(rest))
	}
	return resourceType, rest, rest != ""
}

func isVersion(seg string) bool {
	if len(seg) < 2 || seg[0] != 'v' {
		return false
	}
	for _, r := range seg[1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
