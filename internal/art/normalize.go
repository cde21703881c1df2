package art

import (
	"bytes"
	"fmt"

	"github.com/disintegration/imaging"
)

// DefaultSize is the bounding box, in pixels, artwork is fitted into before upload.
const DefaultSize = 1024

// Normalize decodes data, fits it within size×size preserving aspect ratio
// and re-encodes it as PNG.
//
// Precondition: size > 0.
// Postcondition: Returns PNG bytes whose dimensions are <= size.
func Normalize(data []byte, size int) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	img = imaging.Fit(img, size, size, imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encoding png: %w", err)
	}
	return buf.Bytes(), nil
}
