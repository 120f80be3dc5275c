package storage

import (
	"context"
	"mime/multipart"
	"path/filepath"
	"strings"

	"homehub/config"
	"homehub/utils"
)

// MaxUploadBytes caps a single uploaded file.
const MaxUploadBytes = 5 << 20

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".pdf":  true,
}

// FileStore persists uploaded files and returns a stored reference: either a
// full URL (cloud) or a bare filename (local disk).
type FileStore interface {
	Save(ctx context.Context, file *multipart.FileHeader, folder string) (string, error)
	Delete(ctx context.Context, ref string) error
}

// ValidateUpload enforces the size and extension rules for every upload.
func ValidateUpload(file *multipart.FileHeader) error {
	if file == nil {
		return utils.BadRequest("file is missing")
	}
	if file.Size > MaxUploadBytes {
		return utils.BadRequest("file %s exceeds the 5MB limit", file.Filename)
	}
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedExtensions[ext] {
		return utils.BadRequest("file type %q is not allowed", ext)
	}
	return nil
}

// SaveAll validates and stores every file, removing what was already stored
// if a later file fails.
func SaveAll(ctx context.Context, store FileStore, files []*multipart.FileHeader, folder string) ([]string, error) {
	for _, f := range files {
		if err := ValidateUpload(f); err != nil {
			return nil, err
		}
	}
	refs := make([]string, 0, len(files))
	for _, f := range files {
		ref, err := store.Save(ctx, f, folder)
		if err != nil {
			DeleteAll(ctx, store, refs)
			return nil, utils.Internal("failed to store upload", err)
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// DeleteAll removes refs best effort; failures are logged.
func DeleteAll(ctx context.Context, store FileStore, refs []string) {
	for _, ref := range refs {
		if err := store.Delete(ctx, ref); err != nil {
			utils.GetLogger().Sugar().Warnw("failed to delete stored file", "ref", ref, "error", err)
		}
	}
}

// NewFileStore selects the driver named by STORAGE_DRIVER.
func NewFileStore() (FileStore, error) {
	cfg := config.AppConfig
	if strings.EqualFold(cfg.StorageDriver, "cloudinary") {
		return NewCloudinaryStore(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret, cfg.CloudinaryFolder)
	}
	return NewLocalStore(cfg.UploadDir)
}
