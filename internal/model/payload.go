package model

import (
	"encoding/base64"
	"regexp"
	"strings"
)

// dataURIPattern matches a complete base64 data URI literal.
var dataURIPattern = regexp.MustCompile(`^data:([A-Za-z0-9.+\-/]+);base64,(.+)$`)

// Base64Payload is a binary payload embedded in a document as a data URI of
// the form "data:<mimeType>;base64,<data>".
type Base64Payload struct {
	// MIMEType is the media type, e.g. "image/png".
	MIMEType string

	// Data is the base64 text, still encoded.
	Data string
}

// ParseBase64Payload parses a data URI literal. It never fails: a literal
// that does not match the expected form yields an empty payload, which
// callers detect with IsEmpty.
func ParseBase64Payload(literal string) Base64Payload {
	m := dataURIPattern.FindStringSubmatch(literal)
	if m == nil {
		return Base64Payload{}
	}
	return Base64Payload{MIMEType: m[1], Data: m[2]}
}

// IsEmpty reports whether the payload lacks a MIME type or data.
// Empty payloads are skipped and never written to disk.
func (p Base64Payload) IsEmpty() bool {
	return p.MIMEType == "" || p.Data == ""
}

// IsImage reports whether the payload has an image/* MIME type.
func (p Base64Payload) IsImage() bool {
	major, _, _ := strings.Cut(p.MIMEType, "/")
	return major == "image"
}

// Extension derives a file extension from the MIME subtype. A structured
// syntax suffix is dropped, so "image/svg+xml" becomes "svg".
func (p Base64Payload) Extension() string {
	_, sub, found := strings.Cut(p.MIMEType, "/")
	if !found {
		return ""
	}
	sub, _, _ = strings.Cut(sub, "+")
	return strings.ToLower(sub)
}

// Decode returns the decoded payload bytes. Unpadded data is accepted.
func (p Base64Payload) Decode() ([]byte, error) {
	data := strings.TrimRight(p.Data, "=")
	return base64.RawStdEncoding.DecodeString(data)
}
