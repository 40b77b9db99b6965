package cs4teachers

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestProcessImageResizesWideImages(t *testing.T) {
	img, err := processImage(bytes.NewReader(testPNG(t, 1600, 800)), "Team Photo.PNG")
	require.NoError(t, err)
	assert.Equal(t, "team-photo.png", img.Filename)
	assert.Equal(t, 1200, img.Width)
	assert.Equal(t, 600, img.Height)

	cfg, format, err := image.DecodeConfig(bytes.NewReader(img.Data))
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, 1200, cfg.Width)
}

func TestProcessImageKeepsSmallJPEG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 320, 200)), nil))

	img, err := processImage(&buf, "workshop.jpeg")
	require.NoError(t, err)
	assert.Equal(t, "workshop.jpg", img.Filename)
	assert.Equal(t, 320, img.Width)
	assert.Equal(t, 200, img.Height)
}

func TestProcessImageRejectsNonImages(t *testing.T) {
	_, err := processImage(bytes.NewReader([]byte("not an image")), "notes.txt")
	assert.Error(t, err)
}

func TestSlugifyFilename(t *testing.T) {
	assert.Equal(t, "cs4hs-logo", slugifyFilename("CS4HS Logo.png"))
	assert.Equal(t, "image", slugifyFilename("!!!.jpg"))
}

func TestUniqueFilename(t *testing.T) {
	dir := t.TempDir()
	assert.Equal(t, "logo.png", uniqueFilename(dir, "logo.png"))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "logo.png"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "logo-2.png"), nil, 0o644))
	assert.Equal(t, "logo-3.png", uniqueFilename(dir, "logo.png"))
}

func TestUploadDir(t *testing.T) {
	assert.Equal(t, "uploads/events/series/logos", UploadDir(KindSeries, "logo"))
	assert.Equal(t, "uploads/events/events/images", UploadDir(KindEventImage, "image"))
	assert.Equal(t, "uploads/events/widget", UploadDir(EntityKind("widget"), "file"))
}

func multipartRequest(t *testing.T, field, filename string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("name", "Google"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/admin/sponsor/add/", &body)
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
	return req
}

func TestSaveUpload(t *testing.T) {
	a := &App{Config: SiteConfig{UploadDir: t.TempDir()}, Logger: zerolog.Nop()}
	e := echo.New()
	relDir := UploadDir(KindSponsor, "logo")

	c := e.NewContext(multipartRequest(t, "logo", "Google Logo.png", testPNG(t, 40, 20)), httptest.NewRecorder())
	rel, ok, err := a.saveUpload(c, "logo", relDir)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "uploads/events/sponsors/logos/google-logo.png", rel)
	assert.FileExists(t, filepath.Join(a.Config.UploadDir, filepath.FromSlash(rel)))

	c = e.NewContext(multipartRequest(t, "logo", "Google Logo.png", testPNG(t, 40, 20)), httptest.NewRecorder())
	rel, _, err = a.saveUpload(c, "logo", relDir)
	require.NoError(t, err)
	assert.Equal(t, "uploads/events/sponsors/logos/google-logo-2.png", rel)

	c = e.NewContext(multipartRequest(t, "other", "x.png", testPNG(t, 4, 4)), httptest.NewRecorder())
	_, ok, err = a.saveUpload(c, "logo", relDir)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSaveUploadRejectsInvalidImage(t *testing.T) {
	a := &App{Config: SiteConfig{UploadDir: t.TempDir()}, Logger: zerolog.Nop()}
	c := echo.New().NewContext(multipartRequest(t, "logo", "logo.png", []byte("garbage")), httptest.NewRecorder())

	_, _, err := a.saveUpload(c, "logo", UploadDir(KindSponsor, "logo"))
	ve, ok := IsValidation(err)
	require.True(t, ok)
	assert.Contains(t, ve.Fields, "logo")
}

func TestRemoveUpload(t *testing.T) {
	root := t.TempDir()
	a := &App{Config: SiteConfig{UploadDir: root}, Logger: zerolog.Nop()}

	inside := filepath.Join(root, "uploads", "events", "series", "logos", "logo.png")
	require.NoError(t, os.MkdirAll(filepath.Dir(inside), 0o755))
	require.NoError(t, os.WriteFile(inside, []byte("x"), 0o644))
	outside := filepath.Join(root, "secret.txt")
	require.NoError(t, os.WriteFile(outside, []byte("x"), 0o644))

	a.removeUpload("uploads/events/../../secret.txt")
	a.removeUpload("../secret.txt")
	a.removeUpload("")
	assert.FileExists(t, outside)

	a.removeUpload("uploads/events/series/logos/logo.png")
	assert.NoFileExists(t, inside)

	a.removeUpload("uploads/events/series/logos/missing.png")
}
