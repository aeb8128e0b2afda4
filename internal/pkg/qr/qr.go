// Package qr renders provisioning URIs as QR code images, so clients can
// enroll an authenticator app by scanning instead of typing the secret.
package qr

import (
	"encoding/base64"
	"errors"
	"strings"

	"github.com/skip2/go-qrcode"
)

// ErrEmptyContent indicates the content to encode is empty.
var ErrEmptyContent = errors.New("qr: content is empty")

// defaultSize is the image size in pixels when none is given.
const defaultSize = 256

// Generator defines the contract for QR code rendering.
type Generator interface {
	// PNG renders content as a PNG image of size x size pixels.
	PNG(content string, size int) ([]byte, error)
	// DataURI renders content as a base64 data URI suitable for an <img> tag.
	DataURI(content string, size int) (string, error)
}

// Encoder implements Generator using medium error-correction QR codes.
type Encoder struct{}

// NewEncoder returns a QR code encoder.
func NewEncoder() *Encoder {
	return &Encoder{}
}

// PNG renders content as a PNG image of size x size pixels.
func (e *Encoder) PNG(content string, size int) ([]byte, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}

	if size <= 0 {
		size = defaultSize
	}

	return qrcode.Encode(content, qrcode.Medium, size)
}

// DataURI renders content as a base64 data URI suitable for an <img> tag.
func (e *Encoder) DataURI(content string, size int) (string, error) {
	png, err := e.PNG(content, size)
	if err != nil {
		return "", err
	}

	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
