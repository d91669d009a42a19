package pipeline

import (
	"github.com/Dregen-Yor/auto-invoice/constants"
)

// SourceKind tags what an uploaded payload is, decided once up front so the
// extraction branches never re-derive it from filename or MIME type.
type SourceKind int

const (
	// SourceDocument is a paginated document (PDF). It can be rendered to a
	// raster for vision structuring or reduced to text for text structuring.
	SourceDocument SourceKind = iota
	// SourceImage is a raster image. Vision structuring is the only strategy;
	// there is no text fallback.
	SourceImage
)

func (k SourceKind) String() string {
	if k == SourceDocument {
		return "document"
	}
	return "image"
}

// Source is the input of one extraction run.
type Source struct {
	Kind      SourceKind
	Filename  string
	MediaType string
	Data      []byte
}

// ClassifySource decides document vs image from the declared content type and
// the filename extension. Anything that is not a paginated document is
// treated as an image; undecodable payloads fail later in the image path.
func ClassifySource(filename, contentType string, data []byte) Source {
	kind := SourceImage
	if constants.IsPDF(filename, contentType) {
		kind = SourceDocument
	}
	return Source{
		Kind:      kind,
		Filename:  filename,
		MediaType: contentType,
		Data:      data,
	}
}
