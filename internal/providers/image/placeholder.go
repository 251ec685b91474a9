package image

import (
	"encoding/base64"
	"fmt"
)

// placeholderPNG is a valid 1x1 transparent PNG. It stands in for any slot
// whose image generation failed so the document always renders.
const placeholderPNG = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mP8z8BQDwAEhQGAhKmMIQAAAABJRU5ErkJggg=="

// PlaceholderDataURI returns the inline form of the fallback asset.
func PlaceholderDataURI() string {
	return "data:image/png;base64," + placeholderPNG
}

// DataURI renders the asset as an inline data URI.
func (a Asset) DataURI() string {
	if len(a.Data) == 0 {
		return PlaceholderDataURI()
	}
	return fmt.Sprintf("data:%s;base64,%s", a.MIME, base64.StdEncoding.EncodeToString(a.Data))
}
