package cs4teachers

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"
	"golang.org/x/image/draw"
)

const (
	maxImageWidth = 1200
	jpegQuality   = 80
	maxUploadSize = 10 << 20 // 10MB
)

// uploadDirs maps "kind.field" to the directory below UploadBasePath that
// holds files uploaded through that field.
var uploadDirs = map[string]string{
	string(KindSeries) + ".logo":         "series/logos",
	string(KindSponsor) + ".logo":        "sponsors/logos",
	string(KindResource) + ".image":      "resources/images",
	string(KindSession) + ".image":       "sessions/images",
	string(KindLocationImage) + ".image": "locations/images",
	string(KindEventImage) + ".image":    "events/images",
}

// UploadDir returns the relative directory for uploads through field of kind.
func UploadDir(kind EntityKind, field string) string {
	sub, ok := uploadDirs[string(kind)+"."+field]
	if !ok {
		sub = string(kind)
	}
	return path.Join(UploadBasePath, sub)
}

type processedImage struct {
	Filename string
	Width    int
	Height   int
	Data     []byte
}

// processImage decodes an image from src, resizes it to at most maxImageWidth
// and re-encodes it. PNG and GIF sources become PNG so logos keep their
// transparency; everything else becomes JPEG.
func processImage(src io.Reader, originalName string) (processedImage, error) {
	img, format, err := image.Decode(src)
	if err != nil {
		return processedImage{}, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w > maxImageWidth {
		newH := h * maxImageWidth / w
		dst := image.NewRGBA(image.Rect(0, 0, maxImageWidth, newH))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
		w, h = maxImageWidth, newH
	}

	var buf bytes.Buffer
	ext := ".jpg"
	switch format {
	case "png", "gif":
		ext = ".png"
		err = png.Encode(&buf, img)
	default:
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality})
	}
	if err != nil {
		return processedImage{}, fmt.Errorf("encode %s: %w", strings.TrimPrefix(ext, "."), err)
	}

	return processedImage{
		Filename: slugifyFilename(originalName) + ext,
		Width:    w,
		Height:   h,
		Data:     buf.Bytes(),
	}, nil
}

// slugifyFilename converts a filename (without extension) to a URL-safe slug.
func slugifyFilename(name string) string {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	if s := Slugify(base); s != "" {
		return s
	}
	return "image"
}

// uniqueFilename appends -2, -3, ... until the name is free in dir.
func uniqueFilename(dir, filename string) string {
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filename, ext)
	candidate := filename
	for n := 2; ; n++ {
		if _, err := os.Stat(filepath.Join(dir, candidate)); errors.Is(err, os.ErrNotExist) {
			return candidate
		}
		candidate = fmt.Sprintf("%s-%d%s", base, n, ext)
	}
}

// saveUpload stores the file posted in input, if any, under relDir and
// returns its path relative to the upload root. ok is false when no file
// was posted.
func (a *App) saveUpload(c echo.Context, input, relDir string) (rel string, ok bool, err error) {
	file, err := c.FormFile(input)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("read upload %s: %w", input, err)
	}
	if file.Size > maxUploadSize {
		return "", false, fieldError(input, "File too large (max 10MB).")
	}

	src, err := file.Open()
	if err != nil {
		return "", false, err
	}
	defer src.Close()

	img, err := processImage(src, file.Filename)
	if err != nil {
		return "", false, fieldError(input, "Upload a valid image.")
	}

	dir := filepath.Join(a.Config.UploadDir, filepath.FromSlash(relDir))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", false, fmt.Errorf("create upload dir: %w", err)
	}
	name := uniqueFilename(dir, img.Filename)
	if err := os.WriteFile(filepath.Join(dir, name), img.Data, 0o644); err != nil {
		return "", false, fmt.Errorf("write image: %w", err)
	}
	rel = path.Join(relDir, name)
	if written, ok := c.Get(uploadsKey).(*[]string); ok {
		*written = append(*written, rel)
	}
	a.Logger.Info().Str("file", rel).Int("width", img.Width).Int("height", img.Height).Msg("image uploaded")
	return rel, true, nil
}

// uploadsKey holds the files written while handling the current request.
const uploadsKey = "cs4t_uploads"

// trackUploads starts recording the files saveUpload writes for c.
func trackUploads(c echo.Context) *[]string {
	written := &[]string{}
	c.Set(uploadsKey, written)
	return written
}

// uploadedFiles returns the upload paths referenced by a record's form values.
func uploadedFiles(values url.Values) map[string]bool {
	out := map[string]bool{}
	for _, vs := range values {
		for _, v := range vs {
			if strings.HasPrefix(v, UploadBasePath+"/") {
				out[v] = true
			}
		}
	}
	return out
}

// removeUpload deletes an uploaded file. Paths outside the upload area are ignored.
func (a *App) removeUpload(rel string) {
	clean := path.Clean(rel)
	if rel == "" || !strings.HasPrefix(clean, UploadBasePath+"/") {
		return
	}
	full := filepath.Join(a.Config.UploadDir, filepath.FromSlash(clean))
	if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		a.Logger.Warn().Err(err).Str("file", rel).Msg("remove upload")
	}
}
