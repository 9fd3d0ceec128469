// Package sniffer validates uploaded profile images. Only JPEG and PNG
// are accepted; detection goes by magic bytes, not by what the client
// declared.
package sniffer

import (
	"bytes"
	"errors"
	"net/http"
	"strings"
)

const (
	MimeJPEG = "image/jpeg"
	MimePNG  = "image/png"
)

var ErrUnsupportedType = errors.New("unsupported media type")

var extensions = map[string]string{
	MimeJPEG: "jpg",
	MimePNG:  "png",
}

type Result struct {
	MIME string
	Ext  string
}

// ExtensionFor returns the canonical file extension for an accepted MIME
// type, or "" when the type is not accepted.
func ExtensionFor(mime string) string {
	return extensions[mime]
}

// DetectHead sniffs the leading bytes of an upload.
func DetectHead(head []byte) (Result, error) {
	if isJPEG(head) {
		return Result{MIME: MimeJPEG, Ext: ExtensionFor(MimeJPEG)}, nil
	}
	if isPNG(head) {
		return Result{MIME: MimePNG, Ext: ExtensionFor(MimePNG)}, nil
	}
	return Result{}, ErrUnsupportedType
}

func isJPEG(head []byte) bool {
	return len(head) > 3 &&
		head[0] == 0xff &&
		head[1] == 0xd8 &&
		head[2] == 0xff
}

func isPNG(head []byte) bool {
	pngMagic := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}
	return len(head) >= len(pngMagic) && bytes.Equal(head[:len(pngMagic)], pngMagic)
}

// MimeTypeFromHTTP extracts the bare MIME type of a multipart part,
// dropping any parameters.
func MimeTypeFromHTTP(header http.Header) string {
	contentType := header.Get("Content-Type")
	if contentType == "" {
		return ""
	}
	if idx := strings.Index(contentType, ";"); idx >= 0 {
		return strings.TrimSpace(contentType[:idx])
	}
	return strings.TrimSpace(contentType)
}
