package service

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif" // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"mime"
	"net/http"
	"strings"

	"photoshare/internal/models"

	"github.com/chai2010/webp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	DefaultImageMaxUploadSizeMB = 5
	ThumbnailMaxSize            = 256
	ThumbnailQuality            = 70
	// MaxImagePixels bounds width*height so a small compressed file cannot
	// expand into an oversized bitmap.
	MaxImagePixels = 40_000_000
)

// ImageUpload is an uploaded file as received from the client.
type ImageUpload struct {
	Filename    string
	ContentType string
	Content     []byte
}

// ProcessedImage is a validated upload ready for storage.
type ProcessedImage struct {
	ContentType string
	Ext         string
	Width       int
	Height      int
	Original    []byte
	// Thumbnail is a WebP rendition no larger than ThumbnailMaxSize on either side.
	Thumbnail []byte
}

// ImageProcessor validates uploads and renders thumbnails.
type ImageProcessor struct {
	maxUploadSizeBytes int64
}

// NewImageProcessor limits uploads to maxUploadSizeMB (default when <= 0).
func NewImageProcessor(maxUploadSizeMB int) *ImageProcessor {
	if maxUploadSizeMB <= 0 {
		maxUploadSizeMB = DefaultImageMaxUploadSizeMB
	}
	return &ImageProcessor{maxUploadSizeBytes: int64(maxUploadSizeMB) * 1024 * 1024}
}

// MaxUploadSizeBytes is the accepted upper bound of an upload.
func (p *ImageProcessor) MaxUploadSizeBytes() int64 {
	return p.maxUploadSizeBytes
}

// Process checks size and type, decodes the image and builds its thumbnail.
func (p *ImageProcessor) Process(in ImageUpload) (*ProcessedImage, error) {
	if len(in.Content) == 0 {
		return nil, models.NewValidationError("No file uploaded")
	}
	if int64(len(in.Content)) > p.maxUploadSizeBytes {
		return nil, models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", p.maxUploadSizeBytes/(1024*1024)))
	}

	detected := normalizeContentType(http.DetectContentType(in.Content))
	if !isAllowedImageMIME(detected) {
		return nil, models.NewValidationError("Only image files are allowed")
	}
	if !isAcceptableDeclaredType(in.ContentType) {
		return nil, models.NewValidationError("Only image files are allowed")
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(in.Content))
	if err != nil {
		return nil, models.NewValidationError("Invalid image file")
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, models.NewValidationError("Invalid image file")
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxImagePixels {
		return nil, models.NewValidationError(fmt.Sprintf("Image dimensions too large (max %d megapixels)", MaxImagePixels/1_000_000))
	}

	decoded, format, err := image.Decode(bytes.NewReader(in.Content))
	if err != nil {
		return nil, models.NewValidationError("Invalid image file")
	}
	contentType := decodedFormatToMime(format)
	if contentType == "" {
		return nil, models.NewValidationError("Unsupported image format")
	}

	thumb, err := encodeWebP(resizeToFit(decoded, ThumbnailMaxSize, ThumbnailMaxSize), ThumbnailQuality)
	if err != nil {
		return nil, models.NewStorageError(fmt.Errorf("encode thumbnail: %w", err))
	}

	b := decoded.Bounds()
	return &ProcessedImage{
		ContentType: contentType,
		Ext:         extensionFor(contentType),
		Width:       b.Dx(),
		Height:      b.Dy(),
		Original:    in.Content,
		Thumbnail:   thumb,
	}, nil
}

func resizeToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	if w <= 0 || h <= 0 || (w <= maxWidth && h <= maxHeight) {
		return src
	}

	scale := min(float64(maxWidth)/float64(w), float64(maxHeight)/float64(h))
	newW := max(int(float64(w)*scale), 1)
	newH := max(int(float64(h)*scale), 1)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

func encodeWebP(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := webp.Encode(buf, img, &webp.Options{Quality: float32(quality)}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func isAllowedImageMIME(contentType string) bool {
	switch normalizeContentType(contentType) {
	case "image/jpeg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}

// isAcceptableDeclaredType allows image/* plus the generic types browsers,
// curl and mobile clients send for files; the sniffed type decides.
func isAcceptableDeclaredType(contentType string) bool {
	switch provided := normalizeContentType(contentType); {
	case provided == "", provided == "application/octet-stream":
		return true
	default:
		return strings.HasPrefix(provided, "image/")
	}
}

func normalizeContentType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}

func decodedFormatToMime(format string) string {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "jpeg", "jpg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	default:
		return ""
	}
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ""
	}
}
