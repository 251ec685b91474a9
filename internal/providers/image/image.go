package image

import (
	"context"
	"fmt"
)

// Request describes one image to produce for a document slot.
type Request struct {
	Prompt    string
	Width     int
	Height    int
	RequestID string
}

// Asset is a fetched image ready to be inlined into the document.
type Asset struct {
	Data []byte
	MIME string
}

// Generator is the contract implemented by all image providers.
type Generator interface {
	Generate(ctx context.Context, req Request) (Asset, error)
}

// Size renders the provider size parameter, e.g. "512x512".
func (r Request) Size() string {
	return fmt.Sprintf("%dx%d", r.Width, r.Height)
}
