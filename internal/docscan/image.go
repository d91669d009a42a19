package docscan

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	"image/png"
	"strings"

	"github.com/gen2brain/heic"
)

// PrepareImage normalizes an uploaded raster image to PNG for the vision
// payload. HEIC/HEIF (the iPhone default) is decoded with a dedicated
// decoder; everything else goes through the standard image registry. The
// returned media type is always "image/png".
func PrepareImage(data []byte, contentType string) ([]byte, string, error) {
	mimeType := strings.ToLower(strings.TrimSpace(contentType))

	if mimeType == "image/png" && !isHEICData(data) {
		return data, "image/png", nil
	}

	var img image.Image
	var err error
	if isHEICData(data) || isHEICMimeType(mimeType) {
		img, err = heic.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, "", fmt.Errorf("decoding heic image: %w", err)
		}
	} else {
		img, _, err = image.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, "", fmt.Errorf("decoding image: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, "", fmt.Errorf("encoding png: %w", err)
	}
	return buf.Bytes(), "image/png", nil
}

// isHEICData sniffs the ftyp box brands HEIC containers start with.
func isHEICData(data []byte) bool {
	if len(data) < 12 {
		return false
	}
	if string(data[4:8]) != "ftyp" {
		return false
	}
	switch string(data[8:12]) {
	case "heic", "heif", "mif1", "msf1":
		return true
	}
	return false
}

func isHEICMimeType(mimeType string) bool {
	return strings.Contains(mimeType, "heic") || strings.Contains(mimeType, "heif")
}
