package analysis

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
)

const defaultMIMEType = "image/jpeg"

// DecodeImage accepts a data URL or a bare base64 string.
func DecodeImage(payload string) (Image, error) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return Image{}, ErrImageRequired
	}

	var mime string
	if i := strings.Index(payload, ","); i >= 0 {
		mime = mimeFromHeader(payload[:i])
		payload = payload[i+1:]
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		// browsers sometimes drop the padding
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		if err != nil {
			return Image{}, fmt.Errorf("%w: %v", ErrInvalidImage, err)
		}
	}
	if len(data) == 0 {
		return Image{}, ErrImageRequired
	}

	return NewImage(data, mime), nil
}

// NewImage builds an Image, sniffing the MIME type when none is declared.
func NewImage(data []byte, mime string) Image {
	if mime == "" {
		mime = sniffMIME(data)
	}
	return Image{Data: data, MIMEType: mime}
}

// DataURL renders the image as an inline data URL
func (img Image) DataURL() string {
	return "data:" + img.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
}

// Ext returns a file extension matching the MIME type
func (img Image) Ext() string {
	switch img.MIMEType {
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "image/heic":
		return ".heic"
	default:
		return ".jpg"
	}
}

// "data:image/png;base64" -> "image/png"
func mimeFromHeader(h string) string {
	h = strings.TrimPrefix(strings.TrimSpace(h), "data:")
	if i := strings.Index(h, ";"); i >= 0 {
		h = h[:i]
	}
	if !strings.HasPrefix(h, "image/") {
		return ""
	}
	return h
}

func sniffMIME(data []byte) string {
	ct := http.DetectContentType(data)
	if strings.HasPrefix(ct, "image/") {
		return ct
	}
	return defaultMIMEType
}
