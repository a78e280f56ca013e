package detector

import "context"

// Result is the upstream detection document, kept as decoded JSON so fields
// the API adds later pass through to clients untouched.
type Result map[string]any

// Client exposes the subset of the detection API used by the analysis flow.
type Client interface {
	Detect(ctx context.Context, mediaType string, image []byte) (Result, error)
}

// StripImage removes the annotated image the API may echo back; clients
// already hold the source image.
func (r Result) StripImage() Result {
	delete(r, "image")
	return r
}
