package services

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"net/http"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

const (
	maxCoverSize   = 5 << 20
	maxArtworkSize = 5 << 20

	coverMaxWidth  = 1600
	coverMaxHeight = 900

	// Artwork is rasterised at twice the 120x80pt slot it fills on the ticket.
	artworkWidth  = 240
	artworkHeight = 160

	jpegQuality = 85
)

var unsafeFilenameChars = regexp.MustCompile(`[^a-z0-9._-]+`)

// ImageService normalises event cover uploads and ticket artwork.
type ImageService struct {
	client *http.Client
}

// NewImageService creates an image service whose artwork fetches give up
// after timeout.
func NewImageService(timeout time.Duration) *ImageService {
	return &ImageService{client: &http.Client{Timeout: timeout}}
}

// ProcessCover decodes an uploaded cover, fits it into 1600x900 and
// re-encodes it as JPEG.
func (s *ImageService) ProcessCover(reader io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(reader, maxCoverSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if len(data) > maxCoverSize {
		return nil, fmt.Errorf("image size exceeds maximum allowed size %d bytes", maxCoverSize)
	}

	img, err := decodeImage(data)
	if err != nil {
		return nil, err
	}

	if img.Bounds().Dx() > coverMaxWidth || img.Bounds().Dy() > coverMaxHeight {
		img = imaging.Fit(img, coverMaxWidth, coverMaxHeight, imaging.Lanczos)
	}
	return encodeJPEG(img)
}

// FetchArtwork downloads the event image and crops it to the ticket's
// artwork slot. Callers treat any error as "render without artwork".
func (s *ImageService) FetchArtwork(ctx context.Context, url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("no artwork url")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create artwork request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch artwork: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("artwork fetch returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxArtworkSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read artwork: %w", err)
	}
	if len(data) > maxArtworkSize {
		return nil, fmt.Errorf("artwork exceeds %d bytes", maxArtworkSize)
	}

	img, err := decodeImage(data)
	if err != nil {
		return nil, err
	}
	return encodeJPEG(imaging.Fill(img, artworkWidth, artworkHeight, imaging.Center, imaging.Lanczos))
}

func decodeImage(data []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("invalid image format: %w", err)
	}
	return img, nil
}

func encodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}

// CoverKey returns event-covers/<unix-ms>-<clean name>.jpg.
func CoverKey(filename string, now time.Time) string {
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	base = unsafeFilenameChars.ReplaceAllString(strings.ToLower(base), "-")
	base = strings.Trim(base, "-.")
	if base == "" {
		base = "cover"
	}
	return fmt.Sprintf("event-covers/%d-%s.jpg", now.UnixMilli(), base)
}
