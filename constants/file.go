package constants

import "strings"

// PDFContentType is the declared MIME type for paginated documents.
const PDFContentType = "application/pdf"

// AllowedExtensions holds the default allowed file extensions for invoice
// uploads.
var AllowedExtensions = map[string]struct{}{
	"pdf":  {},
	"jpg":  {},
	"jpeg": {},
	"png":  {},
	"gif":  {},
	"heic": {},
	"heif": {},
}

// IsPDF reports whether the source is a paginated document rather than a
// raster image: the declared content type equals the PDF MIME type, or the
// file name ends with ".pdf" in any case. Everything else is treated as an
// image.
func IsPDF(filename, contentType string) bool {
	if contentType == PDFContentType {
		return true
	}
	return strings.HasSuffix(strings.ToLower(filename), ".pdf")
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// ContentTypeForFilename maps a file name to a MIME type by extension.
func ContentTypeForFilename(filename string) string {
	idx := strings.LastIndex(filename, ".")
	if idx < 0 {
		return "application/octet-stream"
	}
	switch NormalizeExt(filename[idx:]) {
	case "jpg", "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "pdf":
		return PDFContentType
	case "heic":
		return "image/heic"
	case "heif":
		return "image/heif"
	default:
		return "application/octet-stream"
	}
}
