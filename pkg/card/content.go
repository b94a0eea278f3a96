package card

import (
	"encoding/base64"
	"fmt"
	"mime"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
)

const defaultBinaryType = "application/octet-stream"

// Content is the payload of a card. It is either Text or Binary and is
// resolved once, where bytes enter the system.
type Content interface {
	isContent()
	// Len returns the payload length in bytes.
	Len() int
}

// Text is textual content (plain text, JSON, markdown, HTML, ...).
type Text string

// Binary is content that has no faithful text representation.
type Binary []byte

func (Text) isContent()   {}
func (Binary) isContent() {}

func (t Text) Len() int   { return len(t) }
func (b Binary) Len() int { return len(b) }

// MediaType strips parameters from a content type and lowercases it.
// "Text/HTML; charset=utf-8" becomes "text/html".
func MediaType(contentType string) string {
	ct := strings.TrimSpace(contentType)
	if ct == "" {
		return ""
	}
	if mt, _, err := mime.ParseMediaType(ct); err == nil {
		return mt
	}
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return strings.ToLower(strings.TrimSpace(ct))
}

// IsTextual reports whether content of the given type is stored verbatim.
func IsTextual(contentType string) bool {
	mt := MediaType(contentType)
	switch {
	case mt == "":
		return false
	case strings.HasPrefix(mt, "text/"):
		return true
	case strings.HasSuffix(mt, "+json"), strings.HasSuffix(mt, "+xml"):
		return true
	}

	switch mt {
	case "application/json",
		"application/xml",
		"application/javascript",
		"application/x-yaml",
		"application/yaml",
		"application/markdown",
		"application/x-markdown":
		return true
	}
	return false
}

// FromBytes resolves raw bytes into Text or Binary based on the content type.
// Textual types that are not valid UTF-8 are kept as Binary.
func FromBytes(b []byte, contentType string) Content {
	if IsTextual(contentType) && utf8.Valid(b) {
		return Text(b)
	}
	return Binary(b)
}

// DetectContentType sniffs the media type of b. It is used when the remote
// service does not report one.
func DetectContentType(b []byte) string {
	return MediaType(mimetype.Detect(b).String())
}

// Encode returns the text-safe stored form of c. Text is returned verbatim,
// Binary as a base64 data URI.
func Encode(c Content, contentType string) string {
	switch v := c.(type) {
	case Text:
		return string(v)
	case Binary:
		if IsTextual(contentType) && utf8.Valid(v) {
			return string(v)
		}
		mt := MediaType(contentType)
		if mt == "" {
			mt = defaultBinaryType
		}
		return fmt.Sprintf("data:%s;base64,%s", mt, base64.StdEncoding.EncodeToString(v))
	default:
		return ""
	}
}

// Decode turns a stored string back into Content. Base64 data URIs are
// decoded into Binary, everything else is Text.
func Decode(stored string, contentType string) Content {
	if IsTextual(contentType) || !strings.HasPrefix(stored, "data:") {
		return Text(stored)
	}

	header, payload, ok := strings.Cut(stored, ",")
	if !ok || !strings.HasSuffix(header, ";base64") {
		return Text(stored)
	}

	b, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return Text(stored)
	}
	return Binary(b)
}

// Bytes returns the raw payload of c.
func Bytes(c Content) []byte {
	switch v := c.(type) {
	case Text:
		return []byte(v)
	case Binary:
		return []byte(v)
	default:
		return nil
	}
}
