package service

import (
	"path"
	"strings"
)

// recognizedExtensions lists the object-key extensions treated as gallery
// images. Anything else under the prefix is skipped silently.
var recognizedExtensions = map[string]struct{}{
	"jpg":  {},
	"jpeg": {},
	"png":  {},
	"gif":  {},
	"webp": {},
}

var extensionByContentType = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// ImageFilter decides which object keys and content types count as images.
type ImageFilter struct{}

func NewImageFilter() *ImageFilter {
	return &ImageFilter{}
}

// IsImageKey reports whether the key's extension marks it as a gallery image.
// The comparison is case-insensitive; keys without an extension never match.
func (f *ImageFilter) IsImageKey(key string) bool {
	ext := strings.TrimPrefix(path.Ext(strings.TrimSpace(key)), ".")
	if ext == "" {
		return false
	}
	_, ok := recognizedExtensions[strings.ToLower(ext)]
	return ok
}

// ExtensionForContentType returns the canonical key extension for a declared
// upload content type, and whether the type is accepted.
func (f *ImageFilter) ExtensionForContentType(contentType string) (string, bool) {
	ext, ok := extensionByContentType[strings.ToLower(strings.TrimSpace(contentType))]
	return ext, ok
}
