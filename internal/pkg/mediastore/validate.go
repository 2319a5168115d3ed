package mediastore

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"
)

var allowedExt = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".bmp":  true,
}

var allowedMime = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
	"image/bmp":  true,
}

var (
	ErrUnsupportedExtension = errors.New("only JPG, JPEG, PNG, GIF, WEBP and BMP images are supported")
	ErrUnsupportedContent   = errors.New("the uploaded file is not a supported image")
)

// ValidateImageBySniff checks the extension and the first bytes of the file
// against the whitelist and returns the detected mime type.
func ValidateImageBySniff(filename string, head []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExt[ext] {
		return "", ErrUnsupportedExtension
	}

	// SVG and HTML are rejected whatever the extension says
	detected := http.DetectContentType(head)
	if !allowedMime[detected] {
		return "", ErrUnsupportedContent
	}
	return detected, nil
}
