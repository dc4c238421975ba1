package frame

import (
	"mime"
	"path"
	"strings"
)

const octetStream = "application/octet-stream"

var extensionTypes = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"webp": "image/webp",
}

// ResolveContentType keeps a specific declared type. A missing or generic
// one is inferred from the filename extension.
func ResolveContentType(declared, filename string) string {
	declared = strings.TrimSpace(declared)
	if declared != "" && !isOctetStream(declared) {
		return declared
	}

	ext := strings.ToLower(strings.TrimPrefix(path.Ext(filename), "."))
	if ct, ok := extensionTypes[ext]; ok {
		return ct
	}

	return octetStream
}

func isOctetStream(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}

	return mediaType == octetStream
}
