package llm

import (
	"context"

	"github.com/Dregen-Yor/auto-invoice/internal/entity"
)

// Content is the tagged payload for one structuring request: either plain
// text or a raster image with its declared media type.
type Content struct {
	Text      string
	Image     []byte
	MediaType string
}

// TextContent wraps extracted text for structuring.
func TextContent(text string) Content {
	return Content{Text: text}
}

// ImageContent wraps a raster payload for vision structuring.
func ImageContent(data []byte, mediaType string) Content {
	return Content{Image: data, MediaType: mediaType}
}

// IsImage reports whether the payload carries a raster image.
func (c Content) IsImage() bool {
	return len(c.Image) > 0
}

// Structurer is the interface the pipeline depends on. Structure sends one
// request to the configured service and returns the resolved textual content
// of the reply.
type Structurer interface {
	Structure(ctx context.Context, cfg entity.ServiceConfig, content Content) (string, error)
}
