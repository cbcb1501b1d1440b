package storage

import (
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"
)

const defaultResumeMIME = "application/pdf"

var dataURIPrefix = regexp.MustCompile(`^data:[^,]+,`)

// EnsureDataURI wraps a base64 payload as a data URI. Input that already is a
// data URI is returned untouched so it is never encoded twice.
func EnsureDataURI(b64, mimeType string) string {
	if strings.HasPrefix(b64, "data:") {
		return b64
	}
	if mimeType == "" {
		mimeType = defaultResumeMIME
	}
	return fmt.Sprintf("data:%s;base64,%s", mimeType, StripDataURI(b64))
}

// BytesToDataURI encodes raw bytes as a base64 data URI.
func BytesToDataURI(content []byte, mimeType string) string {
	if mimeType == "" {
		mimeType = defaultResumeMIME
	}
	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(content))
}

// StripDataURI drops a leading "data:<mime>;base64," header, if any.
func StripDataURI(uri string) string {
	return dataURIPrefix.ReplaceAllString(uri, "")
}
