package storage

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fileHeader(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&body, w.Boundary()).ReadForm(10 << 20)
	require.NoError(t, err)
	return form.File["file"][0]
}

func TestAbsolutePassesFullURLsThrough(t *testing.T) {
	u := URLResolver{}
	req := httptest.NewRequest("GET", "/api/services", nil)
	ref := "https://res.cloudinary.com/demo/image/upload/v1/homehub/a.jpg"
	assert.Equal(t, ref, u.Absolute(ref, req))
}

func TestAbsoluteUsesForwardedHeaders(t *testing.T) {
	u := URLResolver{}
	req := httptest.NewRequest("GET", "/api/services", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	req.Header.Set("X-Forwarded-Host", "api.homehub.test")

	assert.Equal(t, "https://api.homehub.test/uploads/photo.png", u.Absolute("photo.png", req))
}

func TestAbsoluteUsesPublicBaseInProduction(t *testing.T) {
	u := URLResolver{PublicBaseURL: "https://cdn.homehub.test/", Production: true}
	req := httptest.NewRequest("GET", "/", nil)
	req.Host = "internal:8080"

	assert.Equal(t, "https://cdn.homehub.test/uploads/x.jpg", u.Absolute("x.jpg", req))
	assert.Equal(t, []string{"https://cdn.homehub.test/uploads/x.jpg", ""}, u.AbsoluteAll([]string{"x.jpg", ""}, req))
}

func TestValidateUpload(t *testing.T) {
	assert.NoError(t, ValidateUpload(fileHeader(t, "a.JPG", []byte("img"))))
	assert.NoError(t, ValidateUpload(fileHeader(t, "cv.pdf", []byte("%PDF"))))
	assert.Error(t, ValidateUpload(fileHeader(t, "run.exe", []byte("MZ"))))

	big := fileHeader(t, "big.png", []byte("x"))
	big.Size = MaxUploadBytes + 1
	assert.Error(t, ValidateUpload(big))
	assert.Error(t, ValidateUpload(nil))
}

func TestLocalStoreSaveAndDelete(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStore(dir)
	require.NoError(t, err)

	ref, err := store.Save(context.Background(), fileHeader(t, "photo.PNG", []byte("png-bytes")), "services")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(ref, ".png"))
	assert.NotContains(t, ref, "/")

	data, err := os.ReadFile(filepath.Join(dir, ref))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	require.NoError(t, store.Delete(context.Background(), ref))
	_, err = os.Stat(filepath.Join(dir, ref))
	assert.True(t, os.IsNotExist(err))

	// missing files and foreign URLs are not errors
	assert.NoError(t, store.Delete(context.Background(), ref))
	assert.NoError(t, store.Delete(context.Background(), "https://example.com/a.png"))
}

func TestSaveAllRejectsBeforeStoring(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStore(dir)
	require.NoError(t, err)

	files := []*multipart.FileHeader{
		fileHeader(t, "ok.jpg", []byte("a")),
		fileHeader(t, "bad.sh", []byte("b")),
	}
	_, err = SaveAll(context.Background(), store, files, "services")
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestParseCloudinaryURL(t *testing.T) {
	rt, id, ok := parseCloudinaryURL("https://res.cloudinary.com/demo/image/upload/v1712/homehub/services/abc.jpg")
	require.True(t, ok)
	assert.Equal(t, "image", rt)
	assert.Equal(t, "homehub/services/abc", id)

	rt, id, ok = parseCloudinaryURL("https://res.cloudinary.com/demo/raw/upload/v9/homehub/cv/resume.pdf")
	require.True(t, ok)
	assert.Equal(t, "raw", rt)
	assert.Equal(t, "homehub/cv/resume.pdf", id)

	_, _, ok = parseCloudinaryURL("photo.png")
	assert.False(t, ok)
}
