package util

import (
	"net/http"
	"path/filepath"
	"strings"
)

// DetectResumeType resolves the MIME type of an uploaded resume from its
// extension and verifies it against the sniffed leading bytes.
func DetectResumeType(filename string, head []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	expected, ok := AllowedResumeExtensions[ext]
	if !ok {
		return "", ErrUnsupportedFileType
	}

	sniffed := http.DetectContentType(head)
	switch expected {
	case MimePDF:
		if sniffed != MimePDF {
			return "", ErrUnsupportedFileType
		}
	case MimeDOCX:
		// docx 是 zip 容器
		if sniffed != MimeZip && sniffed != MimeOctetStream {
			return "", ErrUnsupportedFileType
		}
	case MimeText:
		if !strings.HasPrefix(sniffed, "text/") {
			return "", ErrUnsupportedFileType
		}
	}
	return expected, nil
}
