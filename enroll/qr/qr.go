// Package qr decodes TOTP enrollment QR images into their text payload.
package qr

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"

	goLogin "github.com/MrEthical07/goLogin"
)

// Decoder reads QR codes from scanned enrollment images. It implements
// goLogin.ArtifactDecoder; payload syntax is the provisioning layer's
// concern.
type Decoder struct{}

// New creates a QR decoder.
func New() *Decoder {
	return &Decoder{}
}

// Decode extracts the QR payload from the image in r. An image with no
// detectable QR code fails with ErrNoArtifactDetected.
func (d *Decoder) Decode(ctx context.Context, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	img, _, err := image.Decode(r)
	if err != nil {
		return "", fmt.Errorf("decode enrollment image: %w", err)
	}

	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", fmt.Errorf("prepare enrollment image: %w", err)
	}

	result, err := qrcode.NewQRCodeReader().Decode(bmp, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", goLogin.ErrNoArtifactDetected, err)
	}

	return result.GetText(), nil
}

var _ goLogin.ArtifactDecoder = (*Decoder)(nil)
