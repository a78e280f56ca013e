// Package dataurl converts image files to the transferable data URL form the
// controller keeps as its current image.
package dataurl

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

const prefix = "data:"

// Encode returns data as data:<media type>;base64,<payload>. The media type
// is sniffed from the content; parameters such as charset are kept.
func Encode(data []byte) string {
	mediaType := strings.ReplaceAll(mimetype.Detect(data).String(), " ", "")
	return prefix + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// FromFile reads path and encodes it. The read runs on its own goroutine so a
// cancelled ctx returns promptly.
func FromFile(ctx context.Context, path string) (string, error) {
	type result struct {
		data []byte
		err  error
	}
	done := make(chan result, 1)
	go func() {
		data, err := os.ReadFile(path)
		done <- result{data: data, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-done:
		if r.err != nil {
			return "", fmt.Errorf("read image: %w", r.err)
		}
		return Encode(r.data), nil
	}
}

// Payload strips the data URL prefix and returns the base64 text after the
// first comma. A string without a comma is returned unchanged.
func Payload(dataURL string) string {
	if i := strings.IndexByte(dataURL, ','); i >= 0 {
		return dataURL[i+1:]
	}
	return dataURL
}

// MediaType returns the declared media type, or "" if dataURL has none.
func MediaType(dataURL string) string {
	if !strings.HasPrefix(dataURL, prefix) {
		return ""
	}
	header := dataURL[len(prefix):]
	if i := strings.IndexByte(header, ','); i >= 0 {
		header = header[:i]
	}
	mediaType, _, _ := strings.Cut(header, ";")
	return mediaType
}

// Decode returns the raw bytes of a data URL or of a bare base64 payload.
func Decode(dataURL string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(Payload(dataURL))
	if err != nil {
		return nil, fmt.Errorf("decode data url: %w", err)
	}
	return data, nil
}

// IsImage reports whether data sniffs as an image/* type.
func IsImage(data []byte) bool {
	return strings.HasPrefix(mimetype.Detect(data).String(), "image/")
}

// Sniff returns the detected media type of data and its conventional file
// extension with the dot, or "" when none is known.
func Sniff(data []byte) (mediaType, extension string) {
	mt := mimetype.Detect(data)
	return mt.String(), mt.Extension()
}
