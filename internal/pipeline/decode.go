package pipeline

import (
	"bytes"
	"image"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/rotisserie/eris"
)

// checkDecodable rejects inputs that no registered image decoder can read,
// before any OCR cost is paid. Only the header is inspected.
func checkDecodable(data []byte) error {
	if len(data) == 0 {
		return eris.New("pipeline: empty image")
	}
	if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
		return eris.Wrap(err, "pipeline: not a decodable image")
	}
	return nil
}
